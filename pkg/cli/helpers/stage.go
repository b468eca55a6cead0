package helpers

import (
	"context"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/flags"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

// StageInfo contains display information for a stage.
type StageInfo struct {
	Title         string
	Emoji         string
	Activity      string
	Success       string
	FailurePrefix string
}

// RunStage starts a new timer stage, prints the title and activity, runs
// action and prints the success line. When action fails the error is wrapped
// with FailurePrefix and nothing else is printed.
func RunStage(
	cmd *cobra.Command,
	tmr timer.Timer,
	info StageInfo,
	action func(context.Context) error,
) error {
	if tmr != nil {
		tmr.NewStage()
	}

	out := cmd.OutOrStdout()

	notify.WriteMessage(notify.Message{
		Type:    notify.TitleType,
		Content: info.Title,
		Emoji:   info.Emoji,
		Writer:  out,
	})

	if info.Activity != "" {
		notify.WriteMessage(notify.Message{
			Type:    notify.ActivityType,
			Content: info.Activity,
			Writer:  out,
		})
	}

	err := action(commandContext(cmd))
	if err != nil {
		if info.FailurePrefix == "" {
			return err
		}

		return fmt.Errorf("%s: %w", info.FailurePrefix, err)
	}

	notify.WriteMessage(notify.Message{
		Type:    notify.SuccessType,
		Content: info.Success,
		Timer:   flags.MaybeTimer(cmd, tmr),
		Writer:  out,
	})

	return nil
}
