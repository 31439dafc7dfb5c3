package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Format represents the output format
type Format string

const (
	// FormatConsole outputs colored console logs (default)
	FormatConsole Format = "console"
	// FormatJSON outputs JSON formatted logs
	FormatJSON Format = "json"
	// FormatCloudWatch outputs CloudWatch compatible JSON
	FormatCloudWatch Format = "cloudwatch"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the output format
	Format Format `env:"LOG_FORMAT" envDefault:"console"`

	// EnableColors enables colored output (only for console format)
	EnableColors bool `env:"LOG_COLOR" envDefault:"true"`

	// EnableCaller adds file and line number to logs
	EnableCaller bool `env:"LOG_CALLER" envDefault:"false"`

	// EnableTimestamp adds timestamp to logs
	EnableTimestamp bool `env:"LOG_TIMESTAMP" envDefault:"true"`

	// TimeFormat is the time format to use (RFC3339, RFC3339NANO, UNIX, UNIXMILLI or a layout)
	TimeFormat string `env:"LOG_TIME_FORMAT" envDefault:"RFC3339"`

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

// LoadFromEnv loads configuration from environment variables.
// Unparseable values fall back to the defaults.
func LoadFromEnv() *Config {
	config := DefaultConfig()
	if err := env.Parse(config); err != nil {
		return DefaultConfig()
	}

	config.Format = Format(strings.ToLower(string(config.Format)))
	switch config.Format {
	case FormatJSON, FormatCloudWatch, FormatConsole:
	default:
		config.Format = FormatConsole
	}
	config.TimeFormat = resolveTimeFormat(config.TimeFormat)
	return config
}

func resolveTimeFormat(name string) string {
	switch strings.ToUpper(name) {
	case "", "RFC3339":
		return time.RFC3339
	case "RFC3339NANO":
		return time.RFC3339Nano
	case "RFC822":
		return time.RFC822
	case "UNIX":
		return "unix"
	case "UNIXMILLI":
		return "unixmilli"
	default:
		return name
	}
}
