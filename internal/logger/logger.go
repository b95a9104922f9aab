package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger: human-readable console output in
// development, JSON lines everywhere else.
func New(development bool, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(parsed).
		With().
		Timestamp().
		Logger()
}
