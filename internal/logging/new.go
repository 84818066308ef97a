package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the logger backend and its sinks.
type Options struct {
	// Format is "json" (slog, default) or "zerolog".
	Format string
	// File, when set, receives a copy of every record and is rotated by size.
	File  string
	Debug bool
	// Stdout overrides os.Stdout; used by tests.
	Stdout io.Writer
}

// New builds a Logger from opts. The returned closer flushes and closes the
// rotating file, if any.
func New(opts Options) (Logger, io.Closer) {
	var out io.Writer = os.Stdout
	if opts.Stdout != nil {
		out = opts.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, rotating)
		closer = rotating
	}

	if opts.Format == "zerolog" {
		level := zerolog.InfoLevel
		if opts.Debug {
			level = zerolog.DebugLevel
		}
		zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
		return NewZerologLogger(zl), closer
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	sl := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	return NewSlogLogger(sl), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
