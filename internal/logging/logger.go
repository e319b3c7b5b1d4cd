// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"os"

	"github.com/doclens/backend/config"
	"github.com/sirupsen/logrus"
)

// New creates a logger writing to stderr at the configured level and format
func New(cfg config.LogConfig) *logrus.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with an explicit destination
func NewWithOutput(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// Component returns an entry tagged with the component name
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
