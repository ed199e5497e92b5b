// Package logging configures the service's zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. In development it writes a human-readable
// console format; in production it writes structured JSON to stdout.
func New(development bool) zerolog.Logger {
	var w io.Writer = os.Stdout
	if development {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(w).With().Timestamp().Logger()
}
