package rollout

import (
	"context"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/cli/ui/confirm"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const deleteLongDesc = `Delete a rollout together with its revision Deployments.

Services referenced by the rollout are left in place. On a terminal the
revisions to be removed are listed and confirmation is asked for.

Examples:
  rollctl rollout delete checkout --namespace shop --force`

// NewDeleteCmd creates the rollout delete command.
func NewDeleteCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:          "delete NAME",
		Short:        "Delete a rollout",
		Long:         deleteLongDesc,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd)

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		tmr, err := di.ResolveTimer(injector)
		if err != nil {
			return err
		}

		tmr.Start()

		sess, err := newSession(injector, cfgManager)
		if err != nil {
			return err
		}

		name := args[0]

		_, err = sess.rollouts.Get(cmd.Context(), sess.namespace, name)
		if err != nil {
			return err
		}

		if !confirm.ShouldSkipPrompt(force) {
			err = confirmRolloutDeletion(cmd, sess, name)
			if err != nil {
				return err
			}
		}

		return deleteRollout(cmd, sess, tmr, name)
	})

	return cmd
}

func confirmRolloutDeletion(cmd *cobra.Command, sess *session, name string) error {
	revisions, err := revision.List(cmd.Context(), sess.clients.Kube, sess.namespace, name)
	if err != nil {
		notify.Warningf(cmd.OutOrStdout(), "could not list revisions: %v", err)
	}

	names := make([]string, 0, len(revisions))
	for _, rev := range revisions {
		names = append(names, rev.Deployment.Name)
	}

	return confirm.ConfirmDeletion(cmd.OutOrStdout(), &confirm.DeletionPreview{
		Kind:       "Rollout",
		Name:       name,
		Namespace:  sess.namespace,
		Dependents: []confirm.Dependents{{Label: "Deployments", Names: names}},
	}, false)
}

// deleteRollout deletes the rollout, then any revision Deployments garbage
// collection has not removed yet.
func deleteRollout(cmd *cobra.Command, sess *session, tmr timer.Timer, name string) error {
	return helpers.RunStage(cmd, tmr, helpers.StageInfo{
		Title:         "Delete rollout...",
		Emoji:         "🗑️",
		Activity:      fmt.Sprintf("deleting rollout '%s/%s'", sess.namespace, name),
		Success:       fmt.Sprintf("rollout '%s' deleted", name),
		FailurePrefix: "delete rollout",
	}, func(ctx context.Context) error {
		err := sess.rollouts.Delete(ctx, sess.namespace, name)
		if err != nil {
			return err
		}

		revisions, err := revision.List(ctx, sess.clients.Kube, sess.namespace, name)
		if err != nil {
			return err
		}

		manager := revision.NewManager(sess.clients.Kube)

		for _, rev := range revisions {
			err = manager.Delete(ctx, sess.namespace, rev.Deployment.Name)
			if err != nil {
				return err
			}
		}

		return nil
	})
}
