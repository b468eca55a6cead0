package rollout

import (
	"context"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// actionFunc changes one rollout. args holds the positional arguments after NAME.
type actionFunc func(ctx context.Context, sess *session, name string, args []string) (*v1alpha1.Rollout, error)

type actionSpec struct {
	use     string
	short   string
	long    string
	args    cobra.PositionalArgs
	success string
	run     actionFunc
	flags   func(cmd *cobra.Command)
}

// NewActionCmds creates the commands that steer a rollout in progress.
func NewActionCmds(runtimeContainer *di.Runtime) []*cobra.Command {
	var (
		full       bool
		toRevision int64
	)

	specs := []actionSpec{
		{
			use:   "promote NAME",
			short: "Advance a rollout past its current pause or step",
			long: `Advance a paused rollout by one step. For blue-green the preview revision
becomes active. With --full every remaining step and analysis is skipped and
the new revision is promoted to stable at once.

Examples:
  rollctl rollout promote checkout --namespace shop
  rollctl rollout promote checkout --namespace shop --full`,
			success: "rollout '%s' promoted",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Promote(ctx, sess.namespace, name, full)
			},
			flags: func(cmd *cobra.Command) {
				cmd.Flags().BoolVar(&full, "full", false, "Skip all remaining steps and analysis")
			},
		},
		{
			use:   "abort NAME",
			short: "Abort a rollout and return traffic to stable",
			long: `Abort the revision in progress. Every service is routed back to the stable
revision and the new revision is scaled down. The rollout stays Degraded until
it is retried or its template changes.`,
			success: "rollout '%s' aborted",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Abort(ctx, sess.namespace, name)
			},
		},
		{
			use:     "retry NAME",
			short:   "Retry an aborted rollout",
			long:    "Clear an abort and restart the revision in progress from its first step.",
			success: "rollout '%s' restarted from the first step",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Retry(ctx, sess.namespace, name)
			},
		},
		{
			use:     "pause NAME",
			short:   "Freeze a rollout",
			long:    "Freeze replica counts and traffic of a rollout until it is resumed.",
			success: "rollout '%s' paused",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Pause(ctx, sess.namespace, name)
			},
		},
		{
			use:     "resume NAME",
			short:   "Resume a paused rollout",
			long:    "Resume a rollout frozen with 'rollout pause'. Canary pause steps need 'rollout promote'.",
			success: "rollout '%s' resumed",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Resume(ctx, sess.namespace, name)
			},
		},
		{
			use:   "undo NAME",
			short: "Roll back to a previous revision",
			long: `Restore the pod template of an earlier revision, which starts a new rollout
towards it. Without --to-revision the newest revision with a different
template is used. 'rollout history' lists revision numbers.

Examples:
  rollctl rollout undo checkout --namespace shop
  rollctl rollout undo checkout --namespace shop --to-revision 3`,
			success: "rollout '%s' rolled back",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Undo(ctx, sess.namespace, name, toRevision)
			},
			flags: func(cmd *cobra.Command) {
				cmd.Flags().Int64Var(&toRevision, "to-revision", 0, "Revision number to roll back to (0 is the previous one)")
			},
		},
		{
			use:   "set-image NAME [CONTAINER=]IMAGE...",
			short: "Change container images",
			long: `Update container images of a rollout's template, which starts a new rollout.
An image without a container name applies to every container.

Examples:
  rollctl rollout set-image checkout app=shop/checkout:1.2.0 --namespace shop
  rollctl rollout set-image checkout shop/checkout:1.2.0 --namespace shop`,
			args:    cobra.MinimumNArgs(2),
			success: "rollout '%s' image updated",
			run: func(ctx context.Context, sess *session, name string, args []string) (*v1alpha1.Rollout, error) {
				return sess.actions.SetImage(ctx, sess.namespace, name, args...)
			},
		},
		{
			use:     "restart NAME",
			short:   "Restart the pods of a rollout",
			long:    "Stamp the pod template with the current time, which rolls every pod through the rollout's strategy.",
			success: "rollout '%s' restarted",
			run: func(ctx context.Context, sess *session, name string, _ []string) (*v1alpha1.Rollout, error) {
				return sess.actions.Restart(ctx, sess.namespace, name)
			},
		},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmds = append(cmds, newActionCmd(runtimeContainer, spec))
	}

	return cmds
}

func newActionCmd(runtimeContainer *di.Runtime, spec actionSpec) *cobra.Command {
	positional := spec.args
	if positional == nil {
		positional = cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:          spec.use,
		Short:        spec.short,
		Long:         spec.long,
		Args:         positional,
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd)

	if spec.flags != nil {
		spec.flags(cmd)
	}

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		sess, err := newSession(injector, cfgManager)
		if err != nil {
			return err
		}

		name := args[0]

		rollout, err := spec.run(cmd.Context(), sess, name, args[1:])
		if err != nil {
			return fmt.Errorf("%s %s: %w", cmd.Name(), name, err)
		}

		notify.Successf(cmd.OutOrStdout(), spec.success, rollout.Name)

		return nil
	})

	return cmd
}
