// Package form validates submitted HTML forms against declarative rule
// sets. A Schema is plain data; one Validator evaluates any Schema and
// reports every failing rule, keyed by field.
package form

import (
	"context"
	"sort"
	"strings"
)

// Values holds submitted form fields by name.
type Values map[string]string

// Errors maps a field name to its validation messages.
type Errors map[string][]string

// FormField is the key for errors that do not belong to a single field.
const FormField = "_form"

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// First returns the first message recorded for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the names of fields with errors, sorted.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, f+": "+strings.Join(e[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// CaptchaVerifier checks a bot-challenge token with an external service.
// Any returned error counts as a failed check.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}
