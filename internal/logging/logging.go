// Package logging builds the zerolog logger shared by the client components.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to os.Stderr. DEV environments get the
// human-readable console writer, everything else gets JSON lines.
func New(level, env string) zerolog.Logger {
	return NewWithWriter(os.Stderr, level, env)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if env == "DEV" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
