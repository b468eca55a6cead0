package cluster

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewListCmd creates the cluster list command.
func NewListCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List kind clusters",
		Long:         "List the kind clusters on the local container runtime.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		provisioner, err := newProvisioner(cmd, injector, provisionerOptions(configmanager.NewConfig(), ""))
		if err != nil {
			return err
		}

		clusters, err := provisioner.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list clusters: %w", err)
		}

		if len(clusters) == 0 {
			notify.Infof(cmd.OutOrStdout(), "no clusters found")

			return nil
		}

		for _, name := range clusters {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
		}

		return nil
	})

	return cmd
}
