package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR"`
	Port     string `env:"PORT" envDefault:"3001"`
	GRPCAddr string `env:"GRPC_ADDR"`

	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"fittrack"`

	JWTSecret            string        `env:"JWT_SECRET"`
	JWTIssuer            string        `env:"JWT_ISSUER" envDefault:"fittrack"`
	SessionTokenTTL      time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"5h"`
	ActionTokenTTL       time.Duration `env:"ACTION_TOKEN_TTL" envDefault:"10m"`
	EmailVerificationTTL time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"1h"`

	Environment string `env:"APP_ENV" envDefault:"development"`
	AppURL      string `env:"APP_URL" envDefault:"http://localhost:3000"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	SMTPHost     string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"465"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPFrom     string        `env:"SMTP_FROM" envDefault:"noreply@fittracker.local"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"15m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

const defaultDatabaseURL = "mongodb://127.0.0.1:27017"

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(cfg.Port, ":")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getenv("MONGO_URL", defaultDatabaseURL)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("SECRET_JWT")
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTokenTTL <= 0 || c.ActionTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.EmailVerificationTTL <= 0 {
		return errors.New("EMAIL_VERIFICATION_TTL must be positive")
	}
	return nil
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
