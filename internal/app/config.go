package app

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv               string        `envconfig:"APP_ENV" default:"development"`
	AppAddr              string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout       time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppReadHeaderTimeout time.Duration `envconfig:"APP_READ_HEADER_TIMEOUT" default:"10s"`
	AppWriteTimeout      time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"16m"`
	AppRequestTimeout    time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	BackendURL string `envconfig:"BACKEND_URL" default:"http://localhost:5001/api"`
	// ActionTimeout bounds import, detection and bill generation, which can
	// run for minutes.
	ActionTimeout  time.Duration `envconfig:"ACTION_TIMEOUT" default:"15m"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"104857600"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	RateLimit      int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig reads configuration from environment variables. Outside test
// mode a .env file in the working directory is loaded first; variables
// already set take precedence.
func LoadConfig() (*Config, error) {
	if !InTestMode() {
		_ = godotenv.Load()
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("backend url must be an absolute http(s) url")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, errors.New("max upload bytes must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
