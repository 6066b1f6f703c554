package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/api/middleware"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/service"
	log "github.com/sirupsen/logrus"
)

const (
	flashCookie = "flash"

	msgGenericError     = "Error! Looks like there was a problem... try again!"
	msgUnavailable      = "The service is temporarily unavailable, please try again."
	msgInvalidLogin     = "Invalid username or password"
	msgEmailTaken       = "Email already registered"
	msgUsernameTaken    = "Username already taken"
	msgUserAdded        = "User added successfully"
	msgUserUpdated      = "User updated successfully"
	msgUserDeleted      = "User deleted successfully"
	msgLoggedIn         = "Login successful!"
	msgLoggedOut        = "You have been logged out"
	msgNameSubmitted    = "Form submitted successfully"
	defaultLandingRoute = "/dashboard"
)

// View renders templates with the data every page needs.
type View struct {
	CaptchaSiteKey string
	Secure         bool
}

// Render executes template name. Missing form and errors entries default
// to empty maps so templates can index them unconditionally.
func (v *View) Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["form"]; !ok {
		data["form"] = form.Values{}
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = form.Errors{}
	}
	data["csrf_token"] = c.GetString(middleware.CSRFContextKey)
	data["captcha_site_key"] = v.CaptchaSiteKey
	if user, ok := middleware.CurrentUser(c); ok {
		data["current_user"] = user
	}

	var messages []string
	if msg, err := c.Cookie(flashCookie); err == nil && msg != "" {
		messages = append(messages, msg)
		v.setFlash(c, "", -1)
	}
	if msg, ok := data["message"].(string); ok && msg != "" {
		messages = append(messages, msg)
	}
	data["messages"] = messages

	c.HTML(status, name, data)
}

// Flash stores a one-shot message shown by the next rendered page.
func (v *View) Flash(c *gin.Context, message string) {
	v.setFlash(c, message, 0)
}

func (v *View) setFlash(c *gin.Context, message string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, message, maxAge, "/", "", v.Secure, true)
}

// RedirectWithFlash finishes a successful POST.
func (v *View) RedirectWithFlash(c *gin.Context, location, message string) {
	if message != "" {
		v.Flash(c, message)
	}
	c.Redirect(http.StatusSeeOther, location)
}

// safeNext accepts only local absolute paths as post-login targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLandingRoute
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return defaultLandingRoute
	}
	return next
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// addServiceError turns a service failure into a rendered form message and
// logs the detail the user does not see.
func addServiceError(errs form.Errors, op string, err error) {
	var dup *service.DuplicateKeyError
	switch {
	case errors.As(err, &dup):
		switch dup.Field {
		case form.FieldEmail:
			errs.Add(form.FieldEmail, msgEmailTaken)
		case form.FieldUsername:
			errs.Add(form.FieldUsername, msgUsernameTaken)
		default:
			errs.Add(form.FormField, msgGenericError)
		}
		return
	case errors.Is(err, service.ErrUpstreamUnavailable):
		log.WithError(err).WithField("op", op).Warn("store unavailable")
		errs.Add(form.FormField, msgUnavailable)
	default:
		log.WithError(err).WithField("op", op).Error("operation failed")
		errs.Add(form.FormField, msgGenericError)
	}
}
