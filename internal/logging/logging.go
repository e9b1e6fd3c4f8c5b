package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// New builds the service logger. Production uses JSON lines; everything else
// gets the human readable text formatter.
func New(env, level string) *logrus.Logger {
	return NewWithOutput(env, level, os.Stdout)
}

func NewWithOutput(env, level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logger.WithField("log_level", level).Warn("invalid LOG_LEVEL, using info")
	}
	logger.SetLevel(lvl)

	return logger
}

// WithLogger stores a request scoped entry in ctx.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	if ctx == nil || entry == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, entry)
}

// FromContext returns the request scoped entry, or one wrapping the standard
// logger when none was attached.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
