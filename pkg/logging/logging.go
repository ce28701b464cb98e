package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

// NewLogger returns a logger tagged with the name of the module that owns it. All loggers
// share the same output and level.
func NewLogger(loggerName string) *logrus.Entry {
	return base.WithField("module", loggerName)
}

func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base.SetLevel(lvl)
	return nil
}

func SetOutput(w io.Writer) {
	base.SetOutput(w)
}
