package rollout

import (
	"time"

	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewListCmd creates the rollout list command.
func NewListCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var allNamespaces bool

	cmd := &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "List rollouts",
		Long:         "List the rollouts of a namespace, or of every namespace with --all-namespaces.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd)

	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "List rollouts in every namespace")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		sess, err := newSession(injector, cfgManager)
		if err != nil {
			return err
		}

		namespace := sess.namespace
		if allNamespaces {
			namespace = ""
		}

		rollouts, err := sess.rollouts.List(cmd.Context(), namespace)
		if err != nil {
			return err
		}

		if len(rollouts) == 0 {
			notify.Infof(cmd.OutOrStdout(), "no rollouts found")

			return nil
		}

		return writeRolloutTable(cmd.OutOrStdout(), rollouts, allNamespaces, time.Now())
	})

	return cmd
}
