package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrorPage renders the error view with status.
func ErrorPage(c *gin.Context, status int, message string) {
	data := gin.H{
		"title":      http.StatusText(status),
		"status":     status,
		"message":    message,
		"csrf_token": c.GetString(CSRFContextKey),
	}
	if user, ok := CurrentUser(c); ok {
		data["current_user"] = user
	}
	c.HTML(status, "error.html", data)
}

// NotFound renders the 404 page
func NotFound(c *gin.Context) {
	ErrorPage(c, http.StatusNotFound, "The page you are looking for does not exist.")
}

// ErrorHandlerMiddleware handles panics and errors
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(log.Fields{
					"panic": err,
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("recovered from panic")
				ErrorPage(c, http.StatusInternalServerError, "An unexpected error occurred.")
				c.Abort()
			}
		}()

		c.Next()

		// Check if there are any errors
		if len(c.Errors) > 0 {
			log.WithError(c.Errors.Last()).WithField("path", c.Request.URL.Path).Error("request failed")
			if !c.Writer.Written() {
				ErrorPage(c, http.StatusInternalServerError, "An unexpected error occurred.")
			}
		}
	}
}
