package notify

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"unicode"
	"unicode/utf8"
)

// StageSeparatingWriter inserts a blank line before every stage title except
// the first. Titles are lines that start with a pictographic emoji.
type StageSeparatingWriter struct {
	mu         sync.Mutex
	underlying io.Writer
	hasWritten bool
}

// NewStageSeparatingWriter wraps underlying.
func NewStageSeparatingWriter(underlying io.Writer) *StageSeparatingWriter {
	return &StageSeparatingWriter{underlying: underlying}
}

// Write implements io.Writer.
func (w *StageSeparatingWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(data) == 0 {
		return 0, nil
	}

	if w.hasWritten && isTitle(data) {
		_, err := w.underlying.Write([]byte{'\n'})
		if err != nil {
			return 0, fmt.Errorf("write stage separator: %w", err)
		}
	}

	written, err := w.underlying.Write(data)
	if written > 0 {
		w.hasWritten = true
	}

	if err != nil {
		return written, fmt.Errorf("write stage output: %w", err)
	}

	return written, nil
}

// messageSymbols start message lines, not titles.
//
//nolint:gochecknoglobals // fixed lookup table
var messageSymbols = []rune{'►', '✔', '✗', '⚠', 'ℹ', '⏲'}

func isTitle(data []byte) bool {
	first, _ := utf8.DecodeRune(data)
	if first == utf8.RuneError || slices.Contains(messageSymbols, first) {
		return false
	}

	return unicode.Is(unicode.So, first)
}
