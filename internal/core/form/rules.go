package form

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind int

const (
	// Required fails when the trimmed value is empty.
	Required Kind = iota
	// Optional stops evaluation of the field's remaining rules when the
	// value is empty.
	Optional
	// MinLength and MaxLength bound the value's length in characters.
	MinLength
	MaxLength
	// EqualTo requires the value to byte-equal the field named by Other.
	EqualTo
	// Email requires a parseable address without a display name.
	Email
	// PasswordStrength requires an uppercase letter, a lowercase letter,
	// a digit and a special character.
	PasswordStrength
	// Captcha verifies the value as a token with the configured
	// CaptchaVerifier. Skipped when no verifier is configured.
	Captcha
)

// Rule is one check on one field. Message overrides the default text.
type Rule struct {
	Field   string
	Kind    Kind
	Param   int
	Other   string
	Message string
}

// Schema is an ordered rule set for one kind of submission.
type Schema struct {
	Name   string
	Rules  []Rule
	Labels map[string]string
	// Secret fields are never trimmed and never echoed back to the client.
	Secret []string
	// Lower fields are lower-cased after trimming.
	Lower []string
}

func (s *Schema) label(field string) string {
	if l, ok := s.Labels[field]; ok {
		return l
	}
	return field
}

func (s *Schema) isSecret(field string) bool {
	for _, f := range s.Secret {
		if f == field {
			return true
		}
	}
	return false
}

func (s *Schema) isLower(field string) bool {
	for _, f := range s.Lower {
		if f == field {
			return true
		}
	}
	return false
}

// Fields returns every field named by the schema in rule order.
func (s *Schema) Fields() []string {
	seen := map[string]bool{}
	var fields []string
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	for _, r := range s.Rules {
		add(r.Field)
		add(r.Other)
	}
	for _, f := range s.Secret {
		add(f)
	}
	return fields
}

// Normalize returns a copy of values restricted to the schema's fields,
// trimmed (except secret fields) and lower-cased where configured.
func (s *Schema) Normalize(values Values) Values {
	out := make(Values, len(values))
	for _, f := range s.Fields() {
		v := values[f]
		if !s.isSecret(f) {
			v = strings.TrimSpace(v)
		}
		if s.isLower(f) {
			v = strings.ToLower(v)
		}
		out[f] = v
	}
	return out
}

// Redact returns a copy of values with every secret field blanked, for
// re-rendering a form.
func (s *Schema) Redact(values Values) Values {
	out := make(Values, len(values))
	for k, v := range values {
		if s.isSecret(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func checkRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

func checkMinLength(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func checkMaxLength(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func checkEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Name == "" && addr.Address == value
}

// missingPasswordClasses lists the character classes absent from value.
func missingPasswordClasses(value string) []string {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, ch := range value {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case !unicode.IsSpace(ch) && !unicode.IsLetter(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}
	if !hasSpecial {
		missing = append(missing, "one special character")
	}
	return missing
}

func defaultMessage(s *Schema, r Rule) string {
	label := s.label(r.Field)
	switch r.Kind {
	case Required:
		return fmt.Sprintf("%s is required", label)
	case MinLength:
		return fmt.Sprintf("%s must be at least %d characters", label, r.Param)
	case MaxLength:
		return fmt.Sprintf("%s must be at most %d characters", label, r.Param)
	case EqualTo:
		return fmt.Sprintf("%s must match %s", label, s.label(r.Other))
	case Email:
		return "Invalid email address"
	case Captcha:
		return "CAPTCHA verification failed, please try again"
	}
	return fmt.Sprintf("%s is invalid", label)
}
