package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the service logger. Debug mode switches to a human readable
// console writer and lowers the level to debug.
func New(debug bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop is used by tests and by callers that do not care about logs.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
