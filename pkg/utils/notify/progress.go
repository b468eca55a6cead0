package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	fcolor "github.com/fatih/color"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// ProgressLabels are the words shown for each task state.
type ProgressLabels struct {
	Pending   string
	Running   string
	Completed string
}

// DefaultLabels returns pending/running/completed.
func DefaultLabels() ProgressLabels {
	return ProgressLabels{Pending: "pending", Running: "running", Completed: "completed"}
}

// LoadingLabels returns labels for loading images onto nodes.
func LoadingLabels() ProgressLabels {
	return ProgressLabels{Pending: "pending", Running: "loading", Completed: "loaded"}
}

// ProgressTask is one named unit of work.
type ProgressTask struct {
	Name string
	Fn   func(ctx context.Context) error
}

// ProgressOption configures a ProgressGroup.
type ProgressOption func(*ProgressGroup)

// WithLabels sets the task state labels.
func WithLabels(labels ProgressLabels) ProgressOption {
	return func(pg *ProgressGroup) {
		pg.labels = labels
	}
}

// WithTimer prints stage timing after all tasks succeed.
func WithTimer(tmr timer.Timer) ProgressOption {
	return func(pg *ProgressGroup) {
		pg.timer = tmr
	}
}

// WithConcurrency bounds how many tasks run at once. Zero or less is unbounded.
func WithConcurrency(limit int) ProgressOption {
	return func(pg *ProgressGroup) {
		pg.limit = limit
	}
}

type taskState int

const (
	taskPending taskState = iota
	taskRunning
	taskComplete
	taskFailed
)

// ProgressGroup runs tasks in parallel under a title. On a terminal it keeps
// one line per task and redraws them in place. Otherwise it appends a line
// whenever a task starts or finishes.
type ProgressGroup struct {
	title  string
	emoji  string
	labels ProgressLabels
	writer io.Writer
	timer  timer.Timer
	limit  int
	isTTY  bool

	mu         sync.Mutex
	order      []string
	states     map[string]taskState
	linesDrawn int
}

// NewProgressGroup creates a ProgressGroup writing to writer (stdout when nil).
func NewProgressGroup(title, emoji string, writer io.Writer, opts ...ProgressOption) *ProgressGroup {
	if writer == nil {
		writer = os.Stdout
	}

	if emoji == "" {
		emoji = "►"
	}

	isTTY := false
	if file, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(file.Fd()))
	}

	pg := &ProgressGroup{
		title:  title,
		emoji:  emoji,
		labels: DefaultLabels(),
		writer: writer,
		isTTY:  isTTY,
		states: make(map[string]taskState),
	}

	for _, opt := range opts {
		opt(pg)
	}

	return pg
}

// Run executes tasks and returns the first error. Remaining tasks see a
// cancelled context once one fails.
func (pg *ProgressGroup) Run(ctx context.Context, tasks ...ProgressTask) error {
	if len(tasks) == 0 {
		return nil
	}

	for _, task := range tasks {
		pg.order = append(pg.order, task.Name)
		pg.states[task.Name] = taskPending
	}

	if pg.timer != nil {
		pg.timer.NewStage()
	}

	_, _ = fmt.Fprintf(pg.writer, "%s %s...\n", pg.emoji, pg.title)

	if pg.isTTY {
		pg.draw()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if pg.limit > 0 {
		group.SetLimit(pg.limit)
	}

	for _, task := range tasks {
		group.Go(func() error {
			pg.set(task.Name, taskRunning)

			err := task.Fn(groupCtx)
			if err != nil {
				pg.set(task.Name, taskFailed)

				return fmt.Errorf("%s: %w", task.Name, err)
			}

			pg.set(task.Name, taskComplete)

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return fmt.Errorf("parallel execution: %w", err)
	}

	if pg.timer != nil {
		total, stage := pg.timer.GetTiming()
		green := fcolor.New(fcolor.FgGreen)
		_, _ = green.Fprintf(pg.writer, "⏲ current: %s\n", stage)
		_, _ = green.Fprintf(pg.writer, "  total:  %s\n", total)
	}

	return nil
}

// --- internals ---

func (pg *ProgressGroup) set(name string, state taskState) {
	pg.mu.Lock()
	pg.states[name] = state
	pg.mu.Unlock()

	if pg.isTTY {
		pg.draw()

		return
	}

	pg.mu.Lock()
	defer pg.mu.Unlock()

	_, _ = fmt.Fprintln(pg.writer, pg.line(name, state))
}

// draw redraws every task line in place.
func (pg *ProgressGroup) draw() {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.linesDrawn > 0 {
		_, _ = fmt.Fprintf(pg.writer, "\033[%dA", pg.linesDrawn)
	}

	for _, name := range pg.order {
		_, _ = fmt.Fprint(pg.writer, "\033[K")
		_, _ = fmt.Fprintln(pg.writer, pg.line(name, pg.states[name]))
	}

	pg.linesDrawn = len(pg.order)
}

func (pg *ProgressGroup) line(name string, state taskState) string {
	switch state {
	case taskRunning:
		return fcolor.New(fcolor.FgCyan).Sprintf("► %s %s", name, pg.labels.Running)
	case taskComplete:
		return fcolor.New(fcolor.FgGreen).Sprintf("✔ %s %s", name, pg.labels.Completed)
	case taskFailed:
		return fcolor.New(fcolor.FgRed).Sprintf("✗ %s failed", name)
	default:
		return fcolor.New(fcolor.FgHiBlack).Sprintf("○ %s %s", name, pg.labels.Pending)
	}
}
