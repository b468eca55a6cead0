package rollout

import (
	"errors"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/cli/ui"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/k8s/readiness"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/spf13/cobra"
)

const statusLongDesc = `Show the progress of a rollout.

The command fails when the rollout is Degraded, so scripts can use it to
verify a deployment. With --watch the view is refreshed until the rollout is
Healthy or Degraded, or --timeout expires.

Examples:
  # Show the current state
  rollctl rollout status checkout --namespace shop

  # Follow a canary until it completes
  rollctl rollout status checkout --namespace shop --watch`

// NewStatusCmd creates the rollout status command.
func NewStatusCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:          "status NAME",
		Short:        "Show rollout progress",
		Long:         statusLongDesc,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd)

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Refresh until the rollout is Healthy or Degraded")

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		sess, err := newSession(injector, cfgManager)
		if err != nil {
			return err
		}

		if watch {
			return watchStatus(cmd, sess, args[0])
		}

		rollout, err := sess.rollouts.Get(cmd.Context(), sess.namespace, args[0])
		if err != nil {
			return err
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), renderStatus(rollout, ui.Width(cmd.OutOrStdout())))

		return degradedError(rollout)
	})

	return cmd
}

func watchStatus(cmd *cobra.Command, sess *session, name string) error {
	out := cmd.OutOrStdout()
	view := ui.NewLiveView(out)
	width := ui.Width(out)

	var renderErr error

	err := readiness.WaitForRolloutPhase(
		cmd.Context(),
		sess.clients.Dynamic,
		sess.namespace,
		name,
		v1alpha1.PhaseHealthy,
		sess.cfg.Connection.Timeout.Duration,
		func(rollout *v1alpha1.Rollout) {
			ui.SetTerminalTitle(out, fmt.Sprintf("rollctl: %s %s", rollout.Name, rollout.Status.Phase))

			renderErr = errors.Join(renderErr, view.Render(renderStatus(rollout, width)))
		},
	)
	if err != nil {
		if errors.Is(err, readiness.ErrRolloutDegraded) {
			return err
		}

		return fmt.Errorf("watch rollout %s: %w", name, err)
	}

	if renderErr != nil {
		return renderErr
	}

	notify.Successf(out, "rollout '%s' is Healthy", name)

	return nil
}

func degradedError(rollout *v1alpha1.Rollout) error {
	if rollout.Status.Phase != v1alpha1.PhaseDegraded {
		return nil
	}

	return fmt.Errorf("%w: %s", readiness.ErrRolloutDegraded, rollout.Status.Message)
}
