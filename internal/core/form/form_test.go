package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaptcha struct {
	err   error
	calls int
	token string
	ip    string
}

func (s *stubCaptcha) Verify(_ context.Context, token, remoteIP string) error {
	s.calls++
	s.token = token
	s.ip = remoteIP
	return s.err
}

func validUser() Values {
	return Values{
		FieldName:            "Alice Liddell",
		FieldUsername:        "alice",
		FieldEmail:           "alice@example.com",
		FieldRole:            "admin",
		FieldPassword:        "Str0ng!Pass99",
		FieldPasswordConfirm: "Str0ng!Pass99",
	}
}

func TestValidateUserSchemaAccepts(t *testing.T) {
	v := NewValidator(nil)
	out, errs := v.Validate(context.Background(), UserSchema, validUser(), "")
	assert.False(t, errs.HasErrors(), errs)
	assert.Equal(t, "alice", out[FieldUsername])
}

func TestValidateNormalizes(t *testing.T) {
	in := validUser()
	in[FieldName] = "  Alice  "
	in[FieldEmail] = " Alice@Example.COM "
	in[FieldPassword] = " Str0ng!Pass99 "
	in[FieldPasswordConfirm] = " Str0ng!Pass99 "
	in["unexpected"] = "dropped"

	out, errs := NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
	require.False(t, errs.HasErrors(), errs)
	assert.Equal(t, "Alice", out[FieldName])
	assert.Equal(t, "alice@example.com", out[FieldEmail])
	assert.Equal(t, " Str0ng!Pass99 ", out[FieldPassword], "passwords are never trimmed")
	assert.NotContains(t, out, "unexpected")
}

func TestValidateReportsEveryFailure(t *testing.T) {
	in := Values{
		FieldName:            "",
		FieldUsername:        strings.Repeat("u", MaxUsernameLength+1),
		FieldEmail:           "not-an-email",
		FieldPassword:        "short",
		FieldPasswordConfirm: "different",
	}

	_, errs := NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
	require.True(t, errs.HasErrors())

	assert.Equal(t, []string{"Name is required"}, errs[FieldName])
	assert.Equal(t, "Username must be at most 25 characters", errs.First(FieldUsername))
	assert.Equal(t, "Invalid email address", errs.First(FieldEmail))
	assert.Contains(t, errs[FieldPassword], "Password must be at least 8 characters")
	assert.Contains(t, errs[FieldPassword], "Passwords must match")
	assert.Equal(t, []string{FieldEmail, FieldName, FieldPassword, FieldUsername}, errs.Fields())
}

func TestValidateRequiredStopsFieldRules(t *testing.T) {
	in := validUser()
	in[FieldPassword] = ""
	in[FieldPasswordConfirm] = ""

	_, errs := NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
	assert.Equal(t, []string{"Password is required"}, errs[FieldPassword])
	assert.Equal(t, []string{"Confirm Password is required"}, errs[FieldPasswordConfirm])
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		missing  []string
	}{
		{"Str0ng!Pass99", nil},
		{"alllowercase1!", []string{"one uppercase letter"}},
		{"ALLUPPERCASE1!", []string{"one lowercase letter"}},
		{"NoDigitsHere!", []string{"one number"}},
		{"NoSpecial123", []string{"one special character"}},
		{"abcdefgh", []string{"one uppercase letter", "one number", "one special character"}},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			in := validUser()
			in[FieldPassword] = tt.password
			in[FieldPasswordConfirm] = tt.password

			_, errs := NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
			if tt.missing == nil {
				assert.Empty(t, errs[FieldPassword])
				return
			}
			assert.Contains(t, errs[FieldPassword], "Password must contain at least "+strings.Join(tt.missing, ", "))
		})
	}
}

func TestValidateLengthCountsCharacters(t *testing.T) {
	in := validUser()
	in[FieldName] = strings.Repeat("é", MaxNameLength)

	_, errs := NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
	assert.Empty(t, errs[FieldName])

	in[FieldName] += "é"
	_, errs = NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
	assert.Equal(t, "Name must be at most 200 characters", errs.First(FieldName))
}

func TestValidateEmail(t *testing.T) {
	for email, ok := range map[string]bool{
		"bob@example.com":         true,
		"bob.smith+tag@mail.org":  true,
		"bob":                     false,
		"bob@":                    false,
		"Bob <bob@example.com>":   false,
		"bob@example.com, x@y.io": false,
	} {
		t.Run(email, func(t *testing.T) {
			in := validUser()
			in[FieldEmail] = email
			_, errs := NewValidator(nil).Validate(context.Background(), UserSchema, in, "")
			assert.Equal(t, ok, errs.First(FieldEmail) == "")
		})
	}
}

func TestValidateUpdateSchemaOptionalPassword(t *testing.T) {
	in := validUser()
	in[FieldPassword] = ""
	in[FieldPasswordConfirm] = ""

	_, errs := NewValidator(nil).Validate(context.Background(), UpdateSchema, in, "")
	assert.False(t, errs.HasErrors(), errs)

	in[FieldPassword] = "weak"
	_, errs = NewValidator(nil).Validate(context.Background(), UpdateSchema, in, "")
	assert.NotEmpty(t, errs[FieldPassword])
}

func TestValidatePasswordNeedsMatchingConfirmation(t *testing.T) {
	for _, schema := range []*Schema{UserSchema, UpdateSchema, PasswordSchema} {
		t.Run(schema.Name, func(t *testing.T) {
			in := validUser()
			in[FieldPasswordConfirm] = ""

			_, errs := NewValidator(nil).Validate(context.Background(), schema, in, "")
			assert.Contains(t, errs[FieldPassword], "Passwords must match")

			in[FieldPasswordConfirm] = "Str0ng!Pass98"
			_, errs = NewValidator(nil).Validate(context.Background(), schema, in, "")
			assert.Contains(t, errs[FieldPassword], "Passwords must match")
		})
	}
}

func TestValidateCaptcha(t *testing.T) {
	in := validUser()
	in[FieldCaptcha] = "token-123"

	stub := &stubCaptcha{}
	_, errs := NewValidator(stub).Validate(context.Background(), UserSchema, in, "10.0.0.1")
	assert.False(t, errs.HasErrors(), errs)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "token-123", stub.token)
	assert.Equal(t, "10.0.0.1", stub.ip)

	stub.err = errors.New("rejected")
	_, errs = NewValidator(stub).Validate(context.Background(), UserSchema, in, "10.0.0.1")
	assert.Equal(t, "CAPTCHA verification failed, please try again", errs.First(FieldCaptcha))
}

func TestValidateCaptchaDisabled(t *testing.T) {
	v := NewValidator(nil)
	assert.False(t, v.CaptchaEnabled())

	_, errs := v.Validate(context.Background(), LoginSchema, Values{
		FieldUsername: "alice",
		FieldPassword: "anything",
	}, "")
	assert.False(t, errs.HasErrors(), errs)
}

func TestValidateNameSchema(t *testing.T) {
	_, errs := NewValidator(nil).Validate(context.Background(), NameSchema, Values{FieldName: "   "}, "")
	assert.Equal(t, "Name is required", errs.First(FieldName))
}

func TestRedactDropsSecrets(t *testing.T) {
	out := UserSchema.Redact(validUser())
	assert.NotContains(t, out, FieldPassword)
	assert.NotContains(t, out, FieldPasswordConfirm)
	assert.Equal(t, "alice", out[FieldUsername])
}

func TestErrorsError(t *testing.T) {
	errs := Errors{}
	errs.Add(FieldName, "Name is required")
	errs.Add(FormField, "Something went wrong")
	assert.Equal(t, "validation failed: _form: Something went wrong, name: Name is required", errs.Error())
}
