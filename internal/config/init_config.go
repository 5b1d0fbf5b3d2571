package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogging configures the global logrus logger. When LogFile is set the
// log is appended there, otherwise it goes to stderr. The returned closer
// releases the file handle.
func InitLogging(cfg Config) (io.Closer, error) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logrus.SetLevel(level)

	if cfg.LogFile == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(logFile)
	return logFile, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
