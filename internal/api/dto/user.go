package dto

import (
	"time"

	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/service"
)

// UserForm represents the add, update and profile form submission
type UserForm struct {
	Name            string `form:"name"`
	Username        string `form:"username"`
	Email           string `form:"email"`
	Role            string `form:"role"`
	Password        string `form:"password"`
	PasswordConfirm string `form:"password_confirm"`
	Captcha         string `form:"g-recaptcha-response"`
}

func (f UserForm) Values() form.Values {
	return form.Values{
		form.FieldName:            f.Name,
		form.FieldUsername:        f.Username,
		form.FieldEmail:           f.Email,
		form.FieldRole:            f.Role,
		form.FieldPassword:        f.Password,
		form.FieldPasswordConfirm: f.PasswordConfirm,
		form.FieldCaptcha:         f.Captcha,
	}
}

// UserInput converts validated values into a service input
func UserInput(v form.Values) service.UserInput {
	return service.UserInput{
		Username: v[form.FieldUsername],
		Name:     v[form.FieldName],
		Email:    v[form.FieldEmail],
		Role:     v[form.FieldRole],
		Password: v[form.FieldPassword],
	}
}

// UserValues prefills a profile form from a stored user. Credentials are
// never included.
func UserValues(u *domain.User) form.Values {
	return form.Values{
		form.FieldName:     u.Name,
		form.FieldUsername: u.Username,
		form.FieldEmail:    u.Email,
		form.FieldRole:     u.Role,
	}
}

// NameForm represents the name form submission
type NameForm struct {
	Name string `form:"name"`
}

func (f NameForm) Values() form.Values {
	return form.Values{form.FieldName: f.Name}
}

// UserView is a user row in the user list
type UserView struct {
	ID        int64
	Username  string
	Name      string
	Email     string
	Role      string
	DateAdded string
}

func NewUserView(u *domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		DateAdded: u.CreatedAt.UTC().Format(time.DateTime),
	}
}

func NewUserViews(users []*domain.User) []UserView {
	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = NewUserView(u)
	}
	return views
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
