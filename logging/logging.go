// Package logging builds the process logger: zerolog output bridged into log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"

	"github.com/next-trace/scg-dispatch/config"
)

// New returns a slog logger writing to w (stderr when nil) in the configured format.
// Unknown levels fall back to info.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	zl := Zerolog(cfg, w)

	return slog.New(zeroslog.NewHandler(zl, &zeroslog.HandlerOptions{Level: Level(cfg.Level)}))
}

// Zerolog returns the underlying zerolog logger for cfg.
func Zerolog(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	out := w
	if !strings.EqualFold(cfg.Format, config.FormatJSON) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Stamp, NoColor: !isTerminal(w)}
	}

	return zerolog.New(out).With().Timestamp().Str("app", "scg-dispatch").Logger()
}

// Level maps a zerolog level name onto slog.
func Level(name string) slog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return slog.LevelInfo
	}

	switch lvl {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return slog.LevelDebug
	case zerolog.WarnLevel:
		return slog.LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return slog.LevelError
	case zerolog.Disabled:
		return slog.Level(100)
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
