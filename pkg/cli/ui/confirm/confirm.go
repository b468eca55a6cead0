// Package confirm provides confirmation prompts for destructive operations.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"golang.org/x/term"
)

// ErrDeletionCancelled is returned when the user cancels a deletion.
var ErrDeletionCancelled = errors.New("deletion cancelled")

// DeletionPreview lists what a delete command is about to remove.
type DeletionPreview struct {
	// Kind is the resource kind, e.g. "Cluster" or "Rollout".
	Kind      string
	Name      string
	Namespace string
	// Dependents are grouped resources removed along with the target, keyed by label.
	Dependents []Dependents
}

// Dependents is a labelled group of resources deleted with the target.
type Dependents struct {
	Label string
	Names []string
}

var (
	//nolint:gochecknoglobals // dependency injection for tests
	stdinReaderMu sync.RWMutex
	//nolint:gochecknoglobals // dependency injection for tests
	stdinReaderOverride io.Reader

	//nolint:gochecknoglobals // dependency injection for tests
	ttyCheckerMu sync.RWMutex
	//nolint:gochecknoglobals // dependency injection for tests
	ttyCheckerOverride func() bool
)

// SetStdinReaderForTests overrides the stdin reader and returns a restore function.
func SetStdinReaderForTests(reader io.Reader) func() {
	stdinReaderMu.Lock()

	previous := stdinReaderOverride
	stdinReaderOverride = reader

	stdinReaderMu.Unlock()

	return func() {
		stdinReaderMu.Lock()

		stdinReaderOverride = previous

		stdinReaderMu.Unlock()
	}
}

// SetTTYCheckerForTests overrides the TTY checker and returns a restore function.
func SetTTYCheckerForTests(checker func() bool) func() {
	ttyCheckerMu.Lock()

	previous := ttyCheckerOverride
	ttyCheckerOverride = checker

	ttyCheckerMu.Unlock()

	return func() {
		ttyCheckerMu.Lock()

		ttyCheckerOverride = previous

		ttyCheckerMu.Unlock()
	}
}

func getStdinReader() io.Reader {
	stdinReaderMu.RLock()
	defer stdinReaderMu.RUnlock()

	if stdinReaderOverride != nil {
		return stdinReaderOverride
	}

	return os.Stdin
}

// IsTTY reports whether stdin is an interactive terminal.
func IsTTY() bool {
	ttyCheckerMu.RLock()

	override := ttyCheckerOverride

	ttyCheckerMu.RUnlock()

	if override != nil {
		return override()
	}

	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ShouldSkipPrompt is true when force is set or stdin is not a terminal.
func ShouldSkipPrompt(force bool) bool {
	return force || !IsTTY()
}

// ShowDeletionPreview prints the target and its dependents.
func ShowDeletionPreview(writer io.Writer, preview *DeletionPreview) {
	notify.WriteMessage(notify.Message{
		Type:    notify.WarningType,
		Content: "The following resources will be deleted:",
		Writer:  writer,
	})

	var text strings.Builder

	fmt.Fprintf(&text, "  %s: %s", preview.Kind, preview.Name)

	if preview.Namespace != "" {
		fmt.Fprintf(&text, "\n  Namespace: %s", preview.Namespace)
	}

	for _, group := range preview.Dependents {
		if len(group.Names) == 0 {
			continue
		}

		fmt.Fprintf(&text, "\n  %s:", group.Label)

		for _, name := range group.Names {
			fmt.Fprintf(&text, "\n    - %s", name)
		}
	}

	notify.WriteMessage(notify.Message{
		Type:    notify.InfoType,
		Content: text.String(),
		Writer:  writer,
	})
}

// PromptForConfirmation returns true only when the user types "yes" (any case).
func PromptForConfirmation(writer io.Writer) bool {
	notify.WriteMessage(notify.Message{
		Type:    notify.WarningType,
		Content: `Type "yes" to confirm deletion: `,
		Writer:  writer,
	})

	input, err := bufio.NewReader(getStdinReader()).ReadString('\n')
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(input), "yes")
}

// ConfirmDeletion previews the deletion and prompts unless force is set or
// stdin is not a terminal. It returns ErrDeletionCancelled when declined.
func ConfirmDeletion(writer io.Writer, preview *DeletionPreview, force bool) error {
	if ShouldSkipPrompt(force) {
		return nil
	}

	ShowDeletionPreview(writer, preview)

	if !PromptForConfirmation(writer) {
		return ErrDeletionCancelled
	}

	return nil
}
