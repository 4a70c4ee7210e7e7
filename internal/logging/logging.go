// Package logging builds the process-wide zerolog logger. Components receive
// the logger by value and tag themselves with a component field; nothing in
// the system reaches for a global logger.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func New(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
