package logger

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Logger is the component-tagged logging contract used across the module.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component, message string, err error, fields map[string]interface{})
}

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseLevel maps the configuration names onto zerolog levels.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, errors.Errorf("unknown log level %q", name)
	}
}

// LevelFromEnv returns the level requested through LOG_LEVEL or DEBUG=1,
// or "info" when neither is set.
func LevelFromEnv() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	if os.Getenv("DEBUG") == "1" {
		return "debug"
	}
	return "info"
}

// New builds a logger writing to stderr in the requested format.
func New(format Format, level zerolog.Level) (*ZerologAdapter, error) {
	switch format {
	case FormatConsole, "":
		return NewConsoleLogger(level), nil
	case FormatJSON:
		return NewZerolog(os.Stderr, level), nil
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
}
