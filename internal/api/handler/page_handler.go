package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/api/dto"
	"github.com/martijn/userboard/internal/api/middleware"
	"github.com/martijn/userboard/internal/core/form"
)

// PageHandler serves the pages that do not touch the store.
type PageHandler struct {
	*View
	validator *form.Validator
}

func NewPageHandler(view *View, validator *form.Validator) *PageHandler {
	return &PageHandler{
		View:      view,
		validator: validator,
	}
}

// Home handles GET /
func (h *PageHandler) Home(c *gin.Context) {
	h.Render(c, http.StatusOK, "index.html", gin.H{"title": "Home"})
}

// User handles GET /user/:name
func (h *PageHandler) User(c *gin.Context) {
	h.Render(c, http.StatusOK, "user.html", gin.H{
		"title":     "User",
		"user_name": c.Param("name"),
	})
}

// NamePage handles GET /name
func (h *PageHandler) NamePage(c *gin.Context) {
	h.Render(c, http.StatusOK, "name.html", gin.H{"title": "Name"})
}

// Name handles POST /name
func (h *PageHandler) Name(c *gin.Context) {
	var req dto.NameForm
	if err := c.ShouldBind(&req); err != nil {
		middleware.ErrorPage(c, http.StatusBadRequest, "Malformed form submission.")
		return
	}

	values, errs := h.validator.Validate(c.Request.Context(), form.NameSchema, req.Values(), c.ClientIP())
	if errs.HasErrors() {
		h.Render(c, http.StatusOK, "name.html", gin.H{
			"title":  "Name",
			"form":   values,
			"errors": errs,
		})
		return
	}

	// The field is cleared once accepted
	h.Render(c, http.StatusOK, "name.html", gin.H{
		"title":   "Name",
		"name":    values[form.FieldName],
		"message": msgNameSubmitted,
	})
}
