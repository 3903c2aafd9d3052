package logx

import (
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Format represents the output format
type Format string

const (
	// FormatConsole outputs colored console logs (default)
	FormatConsole Format = "console"
	// FormatJSON outputs one JSON object per line
	FormatJSON Format = "json"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Format is the output format
	Format Format `env:"LOG_FORMAT" envDefault:"console"`

	// EnableColors enables colored output (console format only)
	EnableColors bool `env:"LOG_COLOR" envDefault:"true"`

	// EnableCaller adds file and line number to logs
	EnableCaller bool `env:"LOG_CALLER" envDefault:"false"`

	// EnableTimestamp adds timestamp to logs
	EnableTimestamp bool `env:"LOG_TIMESTAMP" envDefault:"true"`

	// TimeFormat is the Go layout used for timestamps
	TimeFormat string `env:"LOG_TIME_FORMAT" envDefault:"2006-01-02T15:04:05Z07:00"`

	// Output is where to write logs (defaults to os.Stdout)
	Output io.Writer
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Format:          FormatConsole,
		EnableColors:    true,
		EnableTimestamp: true,
		TimeFormat:      time.RFC3339,
		Output:          os.Stdout,
	}
}

// LoadFromEnv loads configuration from LOG_* environment variables.
// A malformed variable falls back to the defaults.
func LoadFromEnv() *Config {
	config, err := env.ParseAs[Config]()
	if err != nil {
		return DefaultConfig()
	}
	if config.Format != FormatJSON {
		config.Format = FormatConsole
	}
	config.Output = os.Stdout
	return &config
}
