package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/api/dto"
	"github.com/martijn/userboard/internal/api/middleware"
	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/service"
	log "github.com/sirupsen/logrus"
)

type UserHandler struct {
	*View
	userService *service.UserService
	validator   *form.Validator
	cookie      middleware.SessionCookie
}

func NewUserHandler(view *View, userService *service.UserService, validator *form.Validator, cookie middleware.SessionCookie) *UserHandler {
	return &UserHandler{
		View:        view,
		userService: userService,
		validator:   validator,
		cookie:      cookie,
	}
}

// AddPage handles GET /user/add
func (h *UserHandler) AddPage(c *gin.Context) {
	h.renderAdd(c, form.Values{}, form.Errors{})
}

// Add handles POST /user/add
func (h *UserHandler) Add(c *gin.Context) {
	var req dto.UserForm
	if err := c.ShouldBind(&req); err != nil {
		middleware.ErrorPage(c, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	values, errs := h.validator.Validate(c.Request.Context(), form.UserSchema, req.Values(), c.ClientIP())
	if errs.HasErrors() {
		h.renderAdd(c, form.UserSchema.Redact(values), errs)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), dto.UserInput(values))
	if err != nil {
		addServiceError(errs, "create user", err)
		h.renderAdd(c, form.UserSchema.Redact(values), errs)
		return
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user added")
	h.RedirectWithFlash(c, "/user/add", msgUserAdded)
}

func (h *UserHandler) renderAdd(c *gin.Context, values form.Values, errs form.Errors) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		addServiceError(errs, "list users", err)
	}

	h.Render(c, http.StatusOK, "add_user.html", gin.H{
		"title":  "Add user",
		"form":   values,
		"errors": errs,
		"users":  dto.NewUserViews(users),
	})
}

// UpdatePage handles GET /update/:id
func (h *UserHandler) UpdatePage(c *gin.Context) {
	user, ok := h.loadTarget(c)
	if !ok {
		return
	}

	h.Render(c, http.StatusOK, "update.html", gin.H{
		"title":   "Update user",
		"user_id": user.ID,
		"form":    dto.UserValues(user),
	})
}

// Update handles POST /update/:id
func (h *UserHandler) Update(c *gin.Context) {
	target, ok := h.loadTarget(c)
	if !ok {
		return
	}
	id := target.ID

	values, errs, ok := h.bindUpdate(c)
	if !ok {
		return
	}
	if !errs.HasErrors() {
		_, err := h.userService.Update(c.Request.Context(), id, dto.UserInput(values))
		if errors.Is(err, service.ErrNotFound) {
			middleware.NotFound(c)
			return
		}
		if err == nil {
			log.WithField("user_id", id).Info("user updated")
			h.RedirectWithFlash(c, "/user/add", msgUserUpdated)
			return
		}
		addUpdateError(errs, err)
	}

	h.Render(c, http.StatusOK, "update.html", gin.H{
		"title":   "Update user",
		"user_id": id,
		"form":    form.UpdateSchema.Redact(values),
		"errors":  errs,
	})
}

// Delete handles GET /delete/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		middleware.NotFound(c)
		return
	}

	user, err := h.userService.Delete(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		middleware.NotFound(c)
		return
	}
	if err != nil {
		errs := form.Errors{}
		addServiceError(errs, "delete user", err)
		h.renderAdd(c, form.Values{}, errs)
		return
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user deleted")

	// Sessions of the deleted user are gone with the row
	if current, ok := middleware.CurrentUser(c); ok && current.ID == user.ID {
		h.cookie.Clear(c)
		h.RedirectWithFlash(c, middleware.LoginPath, msgUserDeleted)
		return
	}
	h.RedirectWithFlash(c, "/user/add", msgUserDeleted)
}

// Dashboard handles GET /dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	h.Render(c, http.StatusOK, "dashboard.html", gin.H{
		"title": "Dashboard",
		"form":  dto.UserValues(user),
	})
}

// UpdateProfile handles POST /dashboard, editing the current user.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	values, errs, ok := h.bindUpdate(c)
	if !ok {
		return
	}
	if !errs.HasErrors() {
		updated, err := h.userService.Update(c.Request.Context(), user.ID, dto.UserInput(values))
		if err == nil {
			c.Set(middleware.CurrentUserKey, updated)
			h.RedirectWithFlash(c, "/dashboard", msgUserUpdated)
			return
		}
		addUpdateError(errs, err)
	}

	h.Render(c, http.StatusOK, "dashboard.html", gin.H{
		"title":  "Dashboard",
		"form":   form.UpdateSchema.Redact(values),
		"errors": errs,
	})
}

func (h *UserHandler) bindUpdate(c *gin.Context) (form.Values, form.Errors, bool) {
	var req dto.UserForm
	if err := c.ShouldBind(&req); err != nil {
		middleware.ErrorPage(c, http.StatusBadRequest, "Malformed form submission.")
		return nil, nil, false
	}
	values, errs := h.validator.Validate(c.Request.Context(), form.UpdateSchema, req.Values(), c.ClientIP())
	return values, errs, true
}

func (h *UserHandler) loadTarget(c *gin.Context) (*domain.User, bool) {
	id, ok := parseID(c)
	if !ok {
		middleware.NotFound(c)
		return nil, false
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		middleware.NotFound(c)
		return nil, false
	}
	if err != nil {
		c.Error(err)
		return nil, false
	}
	return user, true
}

// addUpdateError reports update failures generically, constraint
// violations included.
func addUpdateError(errs form.Errors, err error) {
	if errors.Is(err, service.ErrUpstreamUnavailable) {
		addServiceError(errs, "update user", err)
		return
	}
	log.WithError(err).Error("failed to update user")
	errs.Add(form.FormField, msgGenericError)
}
