// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures a logger writing to stderr. format is "text" or "json".
func Setup(level, format string) (*logrus.Logger, error) {
	return SetupTo(os.Stderr, level, format)
}

// SetupTo is Setup with an explicit output.
func SetupTo(out io.Writer, level, format string) (*logrus.Logger, error) {
	logger := logrus.StandardLogger()
	logger.SetOutput(out)
	if strings.TrimSpace(level) == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
	return logger, nil
}
