package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	fcolor "github.com/fatih/color"
)

// MessageType defines the type of notification message.
type MessageType int

// Message type constants. Each type determines the symbol and color.
const (
	// ErrorType is red with a ✗ symbol.
	ErrorType MessageType = iota
	// WarningType is yellow with a ⚠ symbol.
	WarningType
	// ActivityType is uncolored with a ► symbol.
	ActivityType
	// SuccessType is green with a ✔ symbol.
	SuccessType
	// InfoType is blue with a ℹ symbol.
	InfoType
	// TitleType is bold and starts with an emoji.
	TitleType
)

// Message represents a notification message to be displayed to the user.
type Message struct {
	Type    MessageType
	Content string
	Args    []any
	// Timer, when set on a success message, prints stage and total durations after it.
	Timer timer.Timer
	// Emoji replaces the default title emoji.
	Emoji string
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

type style struct {
	symbol string
	color  *fcolor.Color
}

//nolint:gochecknoglobals // fixed lookup table
var styles = map[MessageType]style{
	ErrorType:    {symbol: "✗ ", color: fcolor.New(fcolor.FgRed)},
	WarningType:  {symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)},
	ActivityType: {symbol: "► ", color: fcolor.New(fcolor.Reset)},
	SuccessType:  {symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)},
	InfoType:     {symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)},
	TitleType:    {color: fcolor.New(fcolor.Reset, fcolor.Bold)},
}

const defaultTitleEmoji = "ℹ️"

// Errorf writes an error message to the writer.
func Errorf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ErrorType, Content: format, Args: args, Writer: writer})
}

// Warningf writes a warning message to the writer.
func Warningf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: WarningType, Content: format, Args: args, Writer: writer})
}

// Activityf writes an activity message to the writer.
func Activityf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ActivityType, Content: format, Args: args, Writer: writer})
}

// Successf writes a success message to the writer.
func Successf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Writer: writer})
}

// SuccessWithTimerf writes a success message followed by the timer's durations.
func SuccessWithTimerf(writer io.Writer, tmr timer.Timer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Timer: tmr, Writer: writer})
}

// Infof writes an informational message to the writer.
func Infof(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: InfoType, Content: format, Args: args, Writer: writer})
}

// Titlef writes a stage title with an emoji to the writer.
func Titlef(writer io.Writer, emoji, format string, args ...any) {
	WriteMessage(Message{Type: TitleType, Content: format, Args: args, Emoji: emoji, Writer: writer})
}

// WriteMessage writes msg. Continuation lines of multi-line content are
// indented under the first line's text.
func WriteMessage(msg Message) {
	writer := msg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	content := msg.Content
	if len(msg.Args) > 0 {
		content = fmt.Sprintf(msg.Content, msg.Args...)
	}

	st, ok := styles[msg.Type]
	if !ok {
		st = style{color: fcolor.New(fcolor.Reset)}
	}

	if msg.Type == TitleType {
		emoji := msg.Emoji
		if emoji == "" {
			emoji = defaultTitleEmoji
		}

		printf(st.color, writer, "%s %s\n", emoji, content)

		return
	}

	printf(st.color, writer, "%s%s\n", st.symbol, indent(content, st.symbol))

	if msg.Type == SuccessType && msg.Timer != nil {
		total, stage := msg.Timer.GetTiming()
		printf(st.color, writer, "⏲ current: %s\n", stage)
		printf(st.color, writer, "  total:  %s\n", total)
	}
}

// --- internals ---

// printf reports write failures on stderr; a failed notification never fails a command.
func printf(color *fcolor.Color, writer io.Writer, format string, args ...any) {
	_, err := color.Fprintf(writer, format, args...)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}

func indent(content, symbol string) string {
	if symbol == "" || !strings.Contains(content, "\n") {
		return content
	}

	pad := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}

	return strings.Join(lines, "\n")
}
