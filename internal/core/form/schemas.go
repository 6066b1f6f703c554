package form

// Field names shared by the HTML forms and the schemas below.
const (
	FieldUsername        = "username"
	FieldName            = "name"
	FieldEmail           = "email"
	FieldRole            = "role"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	// FieldCaptcha is the token field posted by reCAPTCHA-compatible widgets.
	FieldCaptcha = "g-recaptcha-response"
)

const (
	MaxUsernameLength = 25
	MaxNameLength     = 200
	MaxEmailLength    = 120
	MaxRoleLength     = 50
	MinPasswordLength = 8
)

var labels = map[string]string{
	FieldUsername:        "Username",
	FieldName:            "Name",
	FieldEmail:           "Email",
	FieldRole:            "Role",
	FieldPassword:        "Password",
	FieldPasswordConfirm: "Confirm Password",
	FieldCaptcha:         "CAPTCHA",
}

var passwordRules = []Rule{
	{Field: FieldPassword, Kind: MinLength, Param: MinPasswordLength},
	{Field: FieldPassword, Kind: PasswordStrength},
	{Field: FieldPassword, Kind: EqualTo, Other: FieldPasswordConfirm, Message: "Passwords must match"},
}

func profileRules() []Rule {
	return []Rule{
		{Field: FieldName, Kind: Required},
		{Field: FieldName, Kind: MaxLength, Param: MaxNameLength},
		{Field: FieldUsername, Kind: Required},
		{Field: FieldUsername, Kind: MaxLength, Param: MaxUsernameLength},
		{Field: FieldEmail, Kind: Required},
		{Field: FieldEmail, Kind: MaxLength, Param: MaxEmailLength},
		{Field: FieldEmail, Kind: Email},
		{Field: FieldRole, Kind: Optional},
		{Field: FieldRole, Kind: MaxLength, Param: MaxRoleLength},
	}
}

func concat(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// UserSchema validates the add-user (registration) form.
var UserSchema = &Schema{
	Name: "user",
	Rules: concat(
		profileRules(),
		[]Rule{{Field: FieldPassword, Kind: Required}},
		passwordRules,
		[]Rule{
			{Field: FieldPasswordConfirm, Kind: Required},
			{Field: FieldCaptcha, Kind: Captcha},
		},
	),
	Labels: labels,
	Secret: []string{FieldPassword, FieldPasswordConfirm, FieldCaptcha},
	Lower:  []string{FieldEmail},
}

// UpdateSchema validates profile edits. The password is optional; when
// given it must satisfy the same policy as on creation.
var UpdateSchema = &Schema{
	Name: "update",
	Rules: concat(
		profileRules(),
		[]Rule{{Field: FieldPassword, Kind: Optional}},
		passwordRules,
	),
	Labels: labels,
	Secret: []string{FieldPassword, FieldPasswordConfirm},
	Lower:  []string{FieldEmail},
}

// PasswordSchema validates a standalone password change.
var PasswordSchema = &Schema{
	Name: "password",
	Rules: concat(
		[]Rule{{Field: FieldPassword, Kind: Required}},
		passwordRules,
		[]Rule{{Field: FieldPasswordConfirm, Kind: Required}},
	),
	Labels: labels,
	Secret: []string{FieldPassword, FieldPasswordConfirm},
}

// LoginSchema validates the login form.
var LoginSchema = &Schema{
	Name: "login",
	Rules: []Rule{
		{Field: FieldUsername, Kind: Required},
		{Field: FieldUsername, Kind: MaxLength, Param: MaxUsernameLength},
		{Field: FieldPassword, Kind: Required},
		{Field: FieldCaptcha, Kind: Captcha},
	},
	Labels: labels,
	Secret: []string{FieldPassword, FieldCaptcha},
}

// NameSchema validates the single-field name form.
var NameSchema = &Schema{
	Name: "name",
	Rules: []Rule{
		{Field: FieldName, Kind: Required, Message: "Name is required"},
		{Field: FieldName, Kind: MaxLength, Param: MaxNameLength},
	},
	Labels: labels,
}
