// Package config loads runtime settings from the environment with caarlos0/env.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/otpauth/pkg/errx"
	"github.com/caarlos0/env/v11"
)

var configErrors = errx.NewRegistry("CONFIG")

var (
	ErrParse   = configErrors.Register("PARSE", errx.TypeValidation, http.StatusInternalServerError, "Failed to parse configuration")
	ErrInvalid = configErrors.Register("INVALID", errx.TypeValidation, http.StatusInternalServerError, "Invalid configuration")
)

// Config holds all runtime configuration.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Server    ServerConfig    `envPrefix:"SERVER_"`
	OTP       OTPConfig       `envPrefix:"OTP_"`
	Session   SessionConfig   `envPrefix:"SESSION_"`
	Analytics AnalyticsConfig `envPrefix:"ANALYTICS_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Notifx    NotifxConfig    `envPrefix:"NOTIFX_"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	CORSOrigins     string        `env:"CORS_ORIGINS" envDefault:"*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// OTPConfig configures the code store.
type OTPConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"60s"`
	MaxAttempts     int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"0s"`
}

// SessionConfig configures session tokens.
type SessionConfig struct {
	Secret   string        `env:"SECRET"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	Issuer   string        `env:"ISSUER" envDefault:"otpauth"`
}

// AnalyticsConfig selects the analytics sinks.
type AnalyticsConfig struct {
	// Sinks is a comma separated list of: log, redis, none.
	Sinks               []string `env:"SINKS" envDefault:"log" envSeparator:","`
	Async               bool     `env:"ASYNC" envDefault:"false"`
	IncludeCodeInEvents bool     `env:"INCLUDE_CODE" envDefault:"false"`
	Stream              string   `env:"STREAM" envDefault:"otpauth:analytics"`
	StreamMaxLen        int64    `env:"STREAM_MAX_LEN" envDefault:"10000"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, configErrors.NewWithCause(ErrParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.OTP.TTL <= 0 {
		return configErrors.New(ErrInvalid).WithDetail("field", "OTP_TTL")
	}
	if c.OTP.MaxAttempts <= 0 {
		return configErrors.New(ErrInvalid).WithDetail("field", "OTP_MAX_ATTEMPTS")
	}
	if c.IsProduction() && c.Session.Secret == "" {
		return configErrors.New(ErrInvalid).WithDetail("field", "SESSION_SECRET")
	}
	switch c.Notifx.Provider {
	case ProviderConsole, ProviderSES:
	default:
		return configErrors.New(ErrInvalid).
			WithDetail("field", "NOTIFX_PROVIDER").
			WithDetail("value", c.Notifx.Provider)
	}
	for _, s := range c.Analytics.Sinks {
		switch strings.TrimSpace(s) {
		case SinkLog, SinkRedis, SinkNone:
		default:
			return configErrors.New(ErrInvalid).
				WithDetail("field", "ANALYTICS_SINKS").
				WithDetail("value", s)
		}
	}
	return nil
}

// Analytics sink names.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkNone  = "none"
)

// UsesSink reports whether name is among the configured sinks.
func (a AnalyticsConfig) UsesSink(name string) bool {
	for _, s := range a.Sinks {
		if strings.TrimSpace(s) == name {
			return true
		}
	}
	return false
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
