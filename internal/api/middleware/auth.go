package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/service"
	log "github.com/sirupsen/logrus"
)

const (
	CurrentUserKey  = "current_user"
	SessionTokenKey = "session_token"

	LoginPath = "/login"
)

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (s SessionCookie) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, token, int(s.MaxAge.Seconds()), "/", "", s.Secure, true)
}

func (s SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

// SessionMiddleware resolves the session cookie to the current user. Requests
// without a valid session continue anonymously.
func SessionMiddleware(authService *service.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(CurrentUserKey, user)
			c.Set(SessionTokenKey, token)
		case errors.Is(err, service.ErrAuthFailure):
			log.WithError(err).Debug("discarding invalid session cookie")
			cookie.Clear(c)
		default:
			log.WithError(err).Error("failed to resolve session")
		}

		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page and aborts
// the chain.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			target := LoginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user of the request, if any.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// SessionToken returns the raw session token of an authenticated request.
func SessionToken(c *gin.Context) string {
	return c.GetString(SessionTokenKey)
}
