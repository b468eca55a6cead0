// Package cluster implements the cluster commands, which manage the local kind
// cluster rollouts are tried against.
package cluster

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	clusterprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster"
	kindprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/kind"
	"github.com/spf13/cobra"
)

// NewClusterCmd creates the parent cluster command.
func NewClusterCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Manage the local kind cluster",
		Long: `Create, delete and list local kind clusters used to try rollouts ` +
			`before they reach a shared environment.`,
		Args:         cobra.NoArgs,
		RunE:         handleClusterRunE,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewCreateCmd(runtimeContainer))
	cmd.AddCommand(NewDeleteCmd(runtimeContainer))
	cmd.AddCommand(NewListCmd(runtimeContainer))

	return cmd
}

//nolint:gochecknoglobals // Injected for testability to simulate help failures.
var helpRunner = func(cmd *cobra.Command) error {
	return cmd.Help()
}

func handleClusterRunE(cmd *cobra.Command, _ []string) error {
	err := helpRunner(cmd)
	if err != nil {
		return fmt.Errorf("displaying cluster command help: %w", err)
	}

	return nil
}

// provisionerOptions maps the loaded config to kind provisioner options.
func provisionerOptions(cfg *configmanager.Config, kubeconfig string) kindprovisioner.Options {
	return kindprovisioner.Options{
		Name:           cfg.Cluster.Name,
		NodeImage:      cfg.Cluster.NodeImage,
		Workers:        int(cfg.Cluster.Workers),
		ConfigPath:     cfg.Cluster.ConfigPath,
		KubeconfigPath: kubeconfig,
		WaitForReady:   cfg.Cluster.WaitForReady.Duration,
	}
}

func newProvisioner(
	cmd *cobra.Command,
	injector di.Injector,
	opts kindprovisioner.Options,
) (clusterprovisioner.ClusterProvisioner, error) {
	factory, err := di.ResolveClusterProvisionerFactory(injector)
	if err != nil {
		return nil, err
	}

	provisioner, err := factory.Create(opts, cmd.OutOrStdout())
	if err != nil {
		return nil, fmt.Errorf("create cluster provisioner: %w", err)
	}

	return provisioner, nil
}
