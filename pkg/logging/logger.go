// Package logging builds the hclog loggers shared by the cargokit commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// EnvLogLevel selects the log level when no --log-level flag is given.
	EnvLogLevel = "CARGOKIT_LOG_LEVEL"
	// EnvJSONLog switches every logger to JSON lines when set to "1".
	EnvJSONLog = "CARGOKIT_JSON_LOG"

	linePrefix = "🦀 "
)

// NewLogger creates a named logger. Text output is prefixed line by line so
// cargokit messages stand out between cargo's own output.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(EnvJSONLog) == "1"
	if !jsonFormat {
		output = NewPrefixWriter(linePrefix, output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// GetLogLevel returns the level from the environment, "warn" when unset.
func GetLogLevel() string {
	level := strings.TrimSpace(os.Getenv(EnvLogLevel))
	if level == "" {
		level = "warn"
	}
	return level
}

// ResolveLevel prefers an explicit flag value over the environment.
func ResolveLevel(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return GetLogLevel()
}

// OrNull returns logger, or a null logger when logger is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
