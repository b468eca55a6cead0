package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/sirupsen/logrus"
)

// ErrInvalidFormat is returned for an unknown log format.
var ErrInvalidFormat = errors.New("invalid log format")

// Format selects how log entries are rendered.
type Format string

const (
	// FormatText renders human readable key=value lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// Set for Format (pflag.Value interface).
func (f *Format) Set(value string) error {
	for _, format := range []Format{FormatText, FormatJSON} {
		if strings.EqualFold(value, string(format)) {
			*f = format

			return nil
		}
	}

	return fmt.Errorf("%w: %s (valid options: %s, %s)", ErrInvalidFormat, value, FormatText, FormatJSON)
}

// String returns the string representation of the Format.
func (f *Format) String() string {
	return string(*f)
}

// Type returns the type of the Format.
func (f *Format) Type() string {
	return "LogFormat"
}

// ValidValues returns all valid Format values as strings.
func (f *Format) ValidValues() []string {
	return []string{string(FormatText), string(FormatJSON)}
}

// New creates a logger writing to out at the given level ("info", "debug", ...).
func New(out io.Writer, level string, format Format) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	if level == "" {
		level = logrus.InfoLevel.String()
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	logger.SetLevel(parsed)

	switch format {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText, "":
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	return logger, nil
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

// Logr bridges logger to logr. Debug enables V(1) and trace enables everything.
func Logr(logger *logrus.Logger) logr.Logger {
	verbosity := 0

	switch {
	case logger.IsLevelEnabled(logrus.TraceLevel):
		verbosity = 10
	case logger.IsLevelEnabled(logrus.DebugLevel):
		verbosity = 1
	}

	return funcr.New(func(prefix, args string) {
		if prefix == "" {
			logger.Info(args)

			return
		}

		logger.WithField("logger", prefix).Info(args)
	}, funcr.Options{Verbosity: verbosity})
}
