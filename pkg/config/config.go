package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Required fields
	SecretKey string `mapstructure:"secret_key"`

	// Optional database settings
	DBPath    string        `mapstructure:"db_path"`
	DBTimeout time.Duration `mapstructure:"db_timeout"`

	// Optional API settings
	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`

	// Optional SSL settings
	SSLCert string `mapstructure:"ssl_cert"`
	SSLKey  string `mapstructure:"ssl_key"`

	// Optional logging settings
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`

	// Optional session settings
	JWTAlgorithm  string        `mapstructure:"jwt_algorithm"`
	SessionCookie string        `mapstructure:"session_cookie"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`

	// Optional password hashing settings
	PasswordHashMethod string `mapstructure:"password_hash_method"`
	PBKDF2Iterations   int    `mapstructure:"pbkdf2_iterations"`
	BcryptCost         int    `mapstructure:"bcrypt_cost"`

	// TemplateDir overrides the embedded templates when set
	TemplateDir string `mapstructure:"template_dir"`
	DevMode     bool   `mapstructure:"dev_mode"`

	Captcha CaptchaConfig `mapstructure:"captcha"`

	ConfigPath string
}

// CaptchaConfig configures the siteverify-compatible bot check on the
// login and user forms.
type CaptchaConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	SiteKey   string        `mapstructure:"site_key"`
	Secret    string        `mapstructure:"secret"`
	VerifyURL string        `mapstructure:"verify_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

const (
	DefaultConfigPath         = "/etc/userboard/config.yml"
	DefaultDBPath             = "/var/lib/userboard/users.sqlite3"
	DefaultDBTimeout          = 5 * time.Second
	DefaultAPIHost            = "0.0.0.0"
	DefaultAPIPort            = 8080
	DefaultLogLevel           = "info"
	DefaultJWTAlgorithm       = "HS256"
	DefaultSessionCookie      = "session"
	DefaultSessionTTL         = 24 * time.Hour
	DefaultPasswordHashMethod = "pbkdf2-sha256"
	DefaultPBKDF2Iterations   = 600000
	DefaultBcryptCost         = 10
	DefaultCaptchaVerifyURL   = "https://www.google.com/recaptcha/api/siteverify"
	DefaultCaptchaTimeout     = 5 * time.Second

	EnvPrefix = "USERBOARD"
)

// Load reads the YAML config file and applies USERBOARD_* environment
// overrides. A missing file is only an error when configPath was given
// explicitly.
func Load(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("db_timeout", DefaultDBTimeout)
	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("api_port", DefaultAPIPort)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("ssl_cert", "")
	v.SetDefault("ssl_key", "")
	v.SetDefault("jwt_algorithm", DefaultJWTAlgorithm)
	v.SetDefault("session_cookie", DefaultSessionCookie)
	v.SetDefault("session_ttl", DefaultSessionTTL)
	v.SetDefault("password_hash_method", DefaultPasswordHashMethod)
	v.SetDefault("pbkdf2_iterations", DefaultPBKDF2Iterations)
	v.SetDefault("bcrypt_cost", DefaultBcryptCost)
	v.SetDefault("template_dir", "")
	v.SetDefault("dev_mode", false)
	v.SetDefault("captcha.enabled", false)
	v.SetDefault("captcha.site_key", "")
	v.SetDefault("captcha.verify_url", DefaultCaptchaVerifyURL)
	v.SetDefault("captcha.timeout", DefaultCaptchaTimeout)

	// Allow environment variable overrides, e.g. USERBOARD_CAPTCHA_SECRET
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("secret_key")
	_ = v.BindEnv("captcha.secret")

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if explicit {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ConfigPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key is required")
	}

	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("jwt_algorithm must be one of HS256, HS384, HS512")
	}

	switch c.PasswordHashMethod {
	case "pbkdf2-sha256", "bcrypt":
	default:
		return fmt.Errorf("password_hash_method must be 'pbkdf2-sha256' or 'bcrypt'")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	if c.DBTimeout <= 0 {
		return fmt.Errorf("db_timeout must be positive")
	}

	if c.Captcha.Enabled {
		if c.Captcha.Secret == "" || c.Captcha.SiteKey == "" {
			return fmt.Errorf("captcha.secret and captcha.site_key are required when captcha is enabled")
		}
		if c.Captcha.Timeout <= 0 {
			return fmt.Errorf("captcha.timeout must be positive")
		}
	}

	// Validate SSL config if provided
	if c.SSLCert != "" || c.SSLKey != "" {
		if c.SSLCert == "" || c.SSLKey == "" {
			return fmt.Errorf("both ssl_cert and ssl_key must be provided")
		}
		if _, err := os.Stat(c.SSLCert); os.IsNotExist(err) {
			return fmt.Errorf("ssl_cert file does not exist: %s", c.SSLCert)
		}
		if _, err := os.Stat(c.SSLKey); os.IsNotExist(err) {
			return fmt.Errorf("ssl_key file does not exist: %s", c.SSLKey)
		}
	}

	return nil
}

// TLSEnabled reports whether the server terminates TLS itself; session
// cookies are marked Secure in that case.
func (c *Config) TLSEnabled() bool {
	return c.SSLCert != "" && c.SSLKey != ""
}

func (c *Config) IsDevMode() bool {
	return c.DevMode || os.Getenv(EnvPrefix+"_DEV_MODE") == "1"
}
