package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Development gets a console writer, everything
// else gets JSON lines on stdout.
func New(level string, development bool) zerolog.Logger {
	return newWithWriter(level, development, os.Stdout)
}

func newWithWriter(level string, development bool, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if development {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "salonhub").Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}
