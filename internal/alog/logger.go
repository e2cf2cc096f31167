// Package alog wires the archive lifecycle engine's diagnostics to hclog,
// the structured logger used throughout the retrieval pack's CLI tools.
package alog

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// New creates an hclog logger with settings shared by every archiveset
// subcommand.
func New(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("ARCHIVESET_JSON_LOG") == "1"

	if !jsonFormat {
		output = NewPrefixWriter(name+": ", output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// LevelFromEnv returns the configured log level, defaulting to "warn" so a
// library caller embedding the engine stays quiet unless asked otherwise.
func LevelFromEnv() string {
	level := os.Getenv("ARCHIVESET_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return level
}
