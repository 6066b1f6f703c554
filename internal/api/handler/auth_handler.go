package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/api/dto"
	"github.com/martijn/userboard/internal/api/middleware"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/service"
	log "github.com/sirupsen/logrus"
)

type AuthHandler struct {
	*View
	authService *service.AuthService
	validator   *form.Validator
	cookie      middleware.SessionCookie
}

func NewAuthHandler(view *View, authService *service.AuthService, validator *form.Validator, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{
		View:        view,
		authService: authService,
		validator:   validator,
		cookie:      cookie,
	}
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.Render(c, http.StatusOK, "login.html", gin.H{
		"title": "Login",
		"next":  c.Query("next"),
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginForm
	if err := c.ShouldBind(&req); err != nil {
		middleware.ErrorPage(c, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	next := c.Query("next")
	values, errs := h.validator.Validate(c.Request.Context(), form.LoginSchema, req.Values(), c.ClientIP())
	if !errs.HasErrors() {
		token, user, err := h.authService.Login(c.Request.Context(), values[form.FieldUsername], values[form.FieldPassword])
		if err == nil {
			log.WithField("user_id", user.ID).Info("user logged in")
			h.cookie.Set(c, token)
			h.RedirectWithFlash(c, safeNext(next), msgLoggedIn)
			return
		}

		if errors.Is(err, service.ErrAuthFailure) {
			log.WithError(err).WithField("client_ip", c.ClientIP()).Info("login failed")
			errs.Add(form.FormField, msgInvalidLogin)
		} else {
			addServiceError(errs, "login", err)
		}
	}

	h.Render(c, http.StatusOK, "login.html", gin.H{
		"title":  "Login",
		"next":   next,
		"form":   form.LoginSchema.Redact(values),
		"errors": errs,
	})
}

// Logout handles GET and POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		log.WithError(err).Warn("failed to revoke session")
	}
	h.cookie.Clear(c)
	h.RedirectWithFlash(c, middleware.LoginPath, msgLoggedOut)
}
