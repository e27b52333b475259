// Package logger constructs the session logger from the configured
// verbosity level.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger whose level follows the config's verbosity:
// 0 warns only, 1 and above informs, 100 and above debugs.
func New(verbose int) zerolog.Logger {
	return NewWriter(verbose, os.Stderr)
}

// NewWriter is New with an explicit output writer.
func NewWriter(verbose int, w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbose >= 100:
		level = zerolog.DebugLevel
	case verbose >= 1:
		level = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
