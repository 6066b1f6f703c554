package dto

import "github.com/martijn/userboard/internal/core/form"

// LoginForm represents the login form submission
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Captcha  string `form:"g-recaptcha-response"`
}

func (f LoginForm) Values() form.Values {
	return form.Values{
		form.FieldUsername: f.Username,
		form.FieldPassword: f.Password,
		form.FieldCaptcha:  f.Captcha,
	}
}
