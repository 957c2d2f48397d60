package obs

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogOptions configures the service logger.
type LogOptions struct {
	Level  string // trace|debug|info|warn|error
	Format string // text|json
	Output io.Writer
}

// NewLogger builds the structured logger shared by all components.
func NewLogger(opts LogOptions) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}
	return l
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
