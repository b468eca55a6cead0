// Package errorhandler runs the command tree and turns its failures into
// a single error carrying a cleaned-up message and a process exit code.
package errorhandler

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

const (
	// ExitFailure is the exit code for ordinary command failures.
	ExitFailure = 1
	// ExitInterrupted is used when the command context was cancelled.
	ExitInterrupted = 130
)

// Executor runs a cobra command while capturing what cobra prints to stderr.
type Executor struct {
	normalizer DefaultNormalizer
}

// NewExecutor constructs an Executor.
func NewExecutor() *Executor {
	return &Executor{normalizer: DefaultNormalizer{}}
}

// Execute runs cmd with a background context.
func (e *Executor) Execute(cmd *cobra.Command) error {
	return e.ExecuteContext(context.Background(), cmd)
}

// ExecuteContext runs cmd with ctx and returns nil on success or a
// *CommandError holding the normalized stderr output and the original error.
func (e *Executor) ExecuteContext(ctx context.Context, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var errBuf bytes.Buffer

	originalErrWriter := cmd.ErrOrStderr()

	cmd.SetErr(&errBuf)
	defer cmd.SetErr(originalErrWriter)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	return &CommandError{
		message: e.normalizer.Normalize(errBuf.String()),
		cause:   err,
	}
}

// CommandError is a cobra failure augmented with its normalized stderr output.
type CommandError struct {
	message string
	cause   error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message != "":
		if strings.Contains(e.message, e.cause.Error()) {
			return e.message
		}

		return e.message + ": " + e.cause.Error()
	default:
		return e.cause.Error()
	}
}

// Unwrap exposes the underlying cause.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// ExitCode maps err to a process exit code: 0 for nil, ExitInterrupted when
// the command was cancelled by a signal and ExitFailure otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// DefaultNormalizer cleans up cobra's stderr output.
type DefaultNormalizer struct{}

// Normalize trims whitespace, removes the leading "Error: " prefix and keeps
// multi-line usage hints.
func (DefaultNormalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	lines[0] = strings.TrimPrefix(strings.TrimSpace(lines[0]), "Error: ")

	return strings.Join(lines, "\n")
}
