// Package ui holds terminal helpers shared by the CLI commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// SetTerminalTitle sets the terminal window title with an OSC 0 sequence.
// Nothing is written when w is not a terminal.
func SetTerminalTitle(w io.Writer, title string) {
	if !IsTerminal(w) {
		return
	}

	_, _ = fmt.Fprintf(w, "\033]0;%s\007", title)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd()))
}

// Width returns the column count of the terminal behind w, or DefaultWidth.
func Width(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok {
		return DefaultWidth
	}

	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}

	return width
}

// LiveView renders successive frames. On a terminal each frame replaces the
// previous one in place; elsewhere frames are appended. A frame equal to the
// last one is not written again.
type LiveView struct {
	out      io.Writer
	inPlace  bool
	last     string
	previous int
}

// NewLiveView creates a LiveView writing to out.
func NewLiveView(out io.Writer) *LiveView {
	return &LiveView{out: out, inPlace: IsTerminal(out)}
}

// Render writes frame, erasing the previous frame first when rendering in place.
func (v *LiveView) Render(frame string) error {
	if !strings.HasSuffix(frame, "\n") {
		frame += "\n"
	}

	if frame == v.last {
		return nil
	}

	var buf strings.Builder

	if v.inPlace && v.previous > 0 {
		// Move up and clear each line of the previous frame.
		for range v.previous {
			buf.WriteString("\033[1A\033[2K")
		}
	}

	buf.WriteString(frame)

	_, err := io.WriteString(v.out, buf.String())
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}

	v.last = frame
	v.previous = strings.Count(frame, "\n")

	return nil
}
