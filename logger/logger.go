package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"portfolio-service/config"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a child logger that stamps every entry with key=value.
	With(key string, value any) Logger
}

type zeroLogger struct {
	zl zerolog.Logger
}

func New(cfg *config.Config) Logger {
	var out io.Writer = os.Stdout
	if !cfg.IsProduction() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "portfolio-service").
		Logger()

	return &zeroLogger{zl: zl}
}

// NewNop discards everything. Used by tests and optional integrations.
func NewNop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

func (l *zeroLogger) Debug(msg string, args ...any) {
	l.zl.Debug().Msg(format(msg, args))
}

func (l *zeroLogger) Info(msg string, args ...any) {
	l.zl.Info().Msg(format(msg, args))
}

func (l *zeroLogger) Warn(msg string, args ...any) {
	l.zl.Warn().Msg(format(msg, args))
}

func (l *zeroLogger) Error(msg string, args ...any) {
	l.zl.Error().Msg(format(msg, args))
}

func (l *zeroLogger) With(key string, value any) Logger {
	return &zeroLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

func format(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
