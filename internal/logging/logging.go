// Package logging builds the logrus loggers used by every binary.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// New creates a logger writing to stderr. Unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	configure(logger, level, format)
	return logger
}

// FromConfig creates a logger from the logging section of the configuration.
// Output is "stdout", "stderr" or a file path opened for appending.
func FromConfig(cfg domain.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	configure(logger, cfg.Level, cfg.Format)

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		logger.SetOutput(os.Stdout)
		return logger, io.NopCloser(nil), nil
	case "stderr":
		logger.SetOutput(os.Stderr)
		return logger, io.NopCloser(nil), nil
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.Output, err)
		}
		logger.SetOutput(f)
		return logger, f, nil
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func configure(logger *logrus.Logger, level, format string) {
	if strings.ToLower(format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}
