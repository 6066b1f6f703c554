package cli

import (
	"context"
	"fmt"

	"github.com/martijn/userboard/internal/adapter/captcha"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/repository"
	"github.com/martijn/userboard/internal/core/service"
	"github.com/martijn/userboard/internal/infrastructure/sqlite"
	"github.com/martijn/userboard/internal/logger"
	"github.com/martijn/userboard/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	cfg         *config.Config
	closeLogger func() error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "userboard",
	Short: "Userboard - minimal user management web app",
	Long: `Userboard manages user accounts through a small server-rendered web UI.

It provides:
- Login and logout with server-side sessions
- Adding, listing, updating and deleting users
- Salted password hashing with a configurable work factor
- Optional CAPTCHA verification on the login and user forms`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		closeLogger, err = logger.Init(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLogger != nil {
			return closeLogger()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/userboard/config.yml)")
}

// initServices initializes all services
func initServices(ctx context.Context) (*Services, error) {
	// Initialize database
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.WithTimeout(cfg.DBTimeout)

	// Initialize repositories
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	codec := service.NewCredentialCodec(service.CodecParams{
		Method:     cfg.PasswordHashMethod,
		Iterations: cfg.PBKDF2Iterations,
		BcryptCost: cfg.BcryptCost,
	})

	// The interface must stay nil when disabled
	var verifier form.CaptchaVerifier
	if cfg.Captcha.Enabled {
		verifier = captcha.NewClient(cfg.Captcha.VerifyURL, cfg.Captcha.Secret, cfg.Captcha.Timeout)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, codec, cfg.SecretKey, cfg.JWTAlgorithm, cfg.SessionTTL)
	userService := service.NewUserService(userRepo, codec)

	return &Services{
		DB:          db,
		UserRepo:    userRepo,
		AuthService: authService,
		UserService: userService,
		Validator:   form.NewValidator(verifier),
	}, nil
}

// Services holds all initialized services
type Services struct {
	DB          *sqlite.DB
	UserRepo    repository.UserRepository
	AuthService *service.AuthService
	UserService *service.UserService
	// Validator checks web submissions; CAPTCHA rules apply when configured.
	Validator *form.Validator
}

// Close closes all resources
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
