package rollout

import (
	"context"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/k8s/readiness"
	"github.com/devantler-tech/rollctl/pkg/svc/manifest"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const applyLongDesc = `Create or update Rollouts and the Services they route.

Files may hold several YAML documents. Directories contribute their .yaml,
.yml and .json files and "-" reads stdin. Services are written before
Rollouts, and every Rollout is validated before anything is written.

Examples:
  # Apply a canary rollout and its services
  rollctl rollout apply -f canary.yaml

  # Apply a directory and wait until every rollout is Healthy
  rollctl rollout apply -f ./deploy --wait`

// NewApplyCmd creates the rollout apply command.
func NewApplyCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var (
		files []string
		wait  bool
	)

	cmd := &cobra.Command{
		Use:          "apply",
		Short:        "Apply rollout manifests",
		Long:         applyLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd)

	cmd.Flags().StringSliceVarP(&files, "filename", "f", nil, "Manifest file, directory or - for stdin (repeatable)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until every applied rollout is Healthy")

	_ = cmd.MarkFlagRequired("filename")

	cmd.RunE = di.RunEWithRuntime(
		runtimeContainer,
		di.WithTimer(func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			tmr.Start()

			set, err := manifest.Load(cmd.InOrStdin(), files...)
			if err != nil {
				return err
			}

			sess, err := newSession(injector, cfgManager)
			if err != nil {
				return err
			}

			err = helpers.RunStage(cmd, tmr, helpers.StageInfo{
				Title:         "Apply manifests...",
				Emoji:         "📄",
				Activity:      fmt.Sprintf("applying %d object(s) to '%s'", set.Len(), sess.namespace),
				Success:       "manifests applied",
				FailurePrefix: "apply manifests",
			}, func(ctx context.Context) error {
				result, err := manifest.Apply(ctx, sess.clients.Kube, sess.rollouts, set, sess.namespace)
				for _, created := range result.Created {
					notify.Activityf(cmd.OutOrStdout(), "%s created", created)
				}

				for _, updated := range result.Updated {
					notify.Activityf(cmd.OutOrStdout(), "%s configured", updated)
				}

				return err
			})
			if err != nil || !wait {
				return err
			}

			return waitHealthy(cmd, sess, tmr, set.Rollouts)
		}),
	)

	return cmd
}

func waitHealthy(cmd *cobra.Command, sess *session, tmr timer.Timer, rollouts []*v1alpha1.Rollout) error {
	for _, rollout := range rollouts {
		err := helpers.RunStage(cmd, tmr, helpers.StageInfo{
			Title:         "Wait for rollout...",
			Emoji:         "⏳",
			Activity:      fmt.Sprintf("waiting for '%s/%s' to become Healthy", rollout.Namespace, rollout.Name),
			Success:       fmt.Sprintf("rollout '%s' is Healthy", rollout.Name),
			FailurePrefix: "wait for rollout " + rollout.Name,
		}, func(ctx context.Context) error {
			return readiness.WaitForRolloutPhase(ctx, sess.clients.Dynamic, rollout.Namespace, rollout.Name,
				v1alpha1.PhaseHealthy, sess.cfg.Connection.Timeout.Duration, nil)
		})
		if err != nil {
			return err
		}
	}

	return nil
}
