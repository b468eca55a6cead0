package cluster

import (
	"context"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const createLongDesc = `Create a local kind cluster and wait for its nodes to become Ready.

The kubeconfig of the new cluster is merged into --kubeconfig and its context
is set as the current one.

Examples:
  # Create the default cluster with one control-plane node
  rollctl cluster create

  # Create a cluster with two workers for rolling-update experiments
  rollctl cluster create --name demo --workers 2`

// NewCreateCmd creates the cluster create command.
func NewCreateCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "create",
		Short:        "Create a kind cluster",
		Long:         createLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.ClusterFieldSelectors())

	cmd.RunE = di.RunEWithRuntime(
		runtimeContainer,
		di.WithTimer(func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			return handleCreateRunE(cmd, injector, cfgManager, tmr)
		}),
	)

	return cmd
}

func handleCreateRunE(
	cmd *cobra.Command,
	injector di.Injector,
	cfgManager *configmanager.ConfigManager,
	tmr timer.Timer,
) error {
	tmr.Start()

	cfg, err := cfgManager.LoadConfig(tmr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	provisioner, err := newProvisioner(cmd, injector, provisionerOptions(cfg, helpers.KubeconfigPath(cfg)))
	if err != nil {
		return err
	}

	return helpers.RunStage(cmd, tmr, helpers.StageInfo{
		Title:         "Create cluster...",
		Emoji:         "🚀",
		Activity:      fmt.Sprintf("creating kind cluster '%s'", cfg.Cluster.Name),
		Success:       fmt.Sprintf("cluster '%s' created", cfg.Cluster.Name),
		FailurePrefix: "create cluster",
	}, func(ctx context.Context) error {
		return provisioner.Create(ctx, cfg.Cluster.Name)
	})
}
