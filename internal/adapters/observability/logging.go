package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger at the given level (info when empty or
// unknown). Logs always go to stderr so they never interleave with command
// output on stdout; APP_ENV=dev (or development) uses a human-friendly
// console writer, anything else JSON.
func NewLogger(env, level string) zerolog.Logger {
	return newLogger(os.Stderr, env, level)
}

func newLogger(w io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := w
	if env == "dev" || env == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
