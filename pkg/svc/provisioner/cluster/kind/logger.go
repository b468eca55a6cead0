package kindprovisioner

import (
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/kind/pkg/log"
)

// streamLogger adapts kind's log.Logger to a writer so kind's console output
// is shown in real time. Messages above the configured verbosity are dropped.
type streamLogger struct {
	writer    io.Writer
	verbosity log.Level
}

// NewStreamLogger returns a kind logger writing to writer. Verbosity 0 shows
// only kind's status lines.
func NewStreamLogger(writer io.Writer, verbosity int) log.Logger {
	if writer == nil {
		writer = io.Discard
	}

	return &streamLogger{writer: writer, verbosity: log.Level(verbosity)} //nolint:gosec // small verbosity levels
}

func (l *streamLogger) Warn(message string) {
	l.write("WARN: " + message)
}

func (l *streamLogger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Error(message string) {
	l.write("ERROR: " + message)
}

func (l *streamLogger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *streamLogger) V(level log.Level) log.InfoLogger {
	if level > l.verbosity {
		return noopInfoLogger{}
	}

	return l
}

func (l *streamLogger) Info(message string) {
	l.write(message)
}

func (l *streamLogger) Infof(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Enabled() bool {
	return true
}

func (l *streamLogger) write(message string) {
	if message == "" {
		_, _ = io.WriteString(l.writer, "\n")

		return
	}

	if strings.ContainsRune(message, '\r') || strings.HasSuffix(message, "\n") {
		_, _ = io.WriteString(l.writer, message)

		return
	}

	_, _ = io.WriteString(l.writer, message+"\n")
}

// noopInfoLogger discards messages above the verbosity.
type noopInfoLogger struct{}

func (noopInfoLogger) Info(string)          {}
func (noopInfoLogger) Infof(string, ...any) {}
func (noopInfoLogger) Enabled() bool        { return false }
