package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/api/dto"
	"github.com/martijn/userboard/internal/api/handler"
	"github.com/martijn/userboard/internal/api/middleware"
	"github.com/martijn/userboard/internal/api/templates"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/service"
	"github.com/martijn/userboard/pkg/config"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
}

// NewServer creates a new web server
func NewServer(
	cfg *config.Config,
	authService *service.AuthService,
	userService *service.UserService,
	validator *form.Validator,
) (*Server, error) {
	// Set Gin mode
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := templates.Load(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	// Global middleware
	router.Use(middleware.AccessLogger())
	router.Use(middleware.ErrorHandlerMiddleware())
	router.Use(middleware.CSRFMiddleware(cfg.TLSEnabled()))

	cookie := middleware.SessionCookie{
		Name:   cfg.SessionCookie,
		MaxAge: authService.SessionTTL(),
		Secure: cfg.TLSEnabled(),
	}
	router.Use(middleware.SessionMiddleware(authService, cookie))

	view := &handler.View{Secure: cfg.TLSEnabled()}
	if validator.CaptchaEnabled() {
		view.CaptchaSiteKey = cfg.Captcha.SiteKey
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(view, authService, validator, cookie)
	userHandler := handler.NewUserHandler(view, userService, validator, cookie)
	pageHandler := handler.NewPageHandler(view, validator)

	// Public routes (no auth required)
	router.GET("/", pageHandler.Home)
	router.GET("/login", authHandler.LoginPage)
	router.POST("/login", authHandler.Login)

	// Protected routes (auth required)
	protected := router.Group("/")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("/logout", authHandler.Logout)
		protected.POST("/logout", authHandler.Logout)

		protected.GET("/dashboard", userHandler.Dashboard)
		protected.POST("/dashboard", userHandler.UpdateProfile)

		protected.GET("/user/add", userHandler.AddPage)
		protected.POST("/user/add", userHandler.Add)
		protected.GET("/update/:id", userHandler.UpdatePage)
		protected.POST("/update/:id", userHandler.Update)
		protected.GET("/delete/:id", userHandler.Delete)

		protected.GET("/user/:name", pageHandler.User)
		protected.GET("/name", pageHandler.NamePage)
		protected.POST("/name", pageHandler.Name)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status: "ok",
			Time:   time.Now().Format(time.RFC3339),
		})
	})

	router.NoRoute(middleware.NotFound)

	server := &Server{
		router: router,
		config: cfg,
	}

	return server, nil
}

// Router exposes the handler chain, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)

	s.srv = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start with or without SSL
	if s.config.TLSEnabled() {
		log.WithField("addr", addr).Info("starting HTTPS server")
		return s.srv.ListenAndServeTLS(s.config.SSLCert, s.config.SSLKey)
	}

	log.WithField("addr", addr).Info("starting HTTP server")
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
