package form

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Validator struct {
	captcha CaptchaVerifier
}

// NewValidator returns a Validator. A nil captcha disables Captcha rules.
func NewValidator(captcha CaptchaVerifier) *Validator {
	return &Validator{captcha: captcha}
}

// CaptchaEnabled reports whether Captcha rules are evaluated.
func (v *Validator) CaptchaEnabled() bool {
	return v.captcha != nil
}

// Validate normalizes values and evaluates every rule of schema. It
// returns the normalized values and all failures; the submission is valid
// only when the returned Errors is empty.
func (v *Validator) Validate(ctx context.Context, schema *Schema, values Values, remoteIP string) (Values, Errors) {
	normalized := schema.Normalize(values)
	errs := Errors{}
	done := map[string]bool{}

	for _, rule := range schema.Rules {
		if done[rule.Field] {
			continue
		}
		value := normalized[rule.Field]

		ok := true
		switch rule.Kind {
		case Required:
			if !checkRequired(value) {
				ok = false
				done[rule.Field] = true
			}
		case Optional:
			if value == "" {
				done[rule.Field] = true
			}
		case MinLength:
			ok = checkMinLength(value, rule.Param)
		case MaxLength:
			ok = checkMaxLength(value, rule.Param)
		case EqualTo:
			ok = value == normalized[rule.Other]
		case Email:
			ok = checkEmail(value)
		case PasswordStrength:
			if missing := missingPasswordClasses(value); len(missing) > 0 {
				msg := rule.Message
				if msg == "" {
					msg = fmt.Sprintf("%s must contain at least %s", schema.label(rule.Field), strings.Join(missing, ", "))
				}
				errs.Add(rule.Field, msg)
			}
			continue
		case Captcha:
			if v.captcha == nil {
				continue
			}
			if err := v.captcha.Verify(ctx, value, remoteIP); err != nil {
				log.WithError(err).WithField("form", schema.Name).Info("captcha verification failed")
				ok = false
			}
		}

		if !ok {
			msg := rule.Message
			if msg == "" {
				msg = defaultMessage(schema, rule)
			}
			errs.Add(rule.Field, msg)
		}
	}

	return normalized, errs
}
