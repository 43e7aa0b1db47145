package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// base is the shared logger. Diagnostics go to stderr so report output on
// stdout stays machine-parsable.
var base = newBase()

func newBase() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return logger
}

// SetDebug enables debug-level diagnostics (skipped files, cache statistics,
// resolution traces)
func SetDebug(enabled bool) {
	if enabled {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput redirects diagnostics, used by tests
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// Scope returns a logger entry tagged with the originating component
func Scope(component string) *logrus.Entry {
	return base.WithField("component", component)
}
