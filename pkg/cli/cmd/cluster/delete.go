package cluster

import (
	"context"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/cli/ui/confirm"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	clustererrors "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/errors"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const deleteLongDesc = `Delete a local kind cluster and remove it from the kubeconfig.

On a terminal the nodes to be removed are listed and confirmation is asked
for. --force skips the prompt.

Examples:
  # Delete the default cluster
  rollctl cluster delete

  # Delete a named cluster without prompting
  rollctl cluster delete --name demo --force`

// NewDeleteCmd creates the cluster delete command.
func NewDeleteCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:          "delete",
		Short:        "Delete a kind cluster",
		Long:         deleteLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, []configmanager.FieldSelector[configmanager.Config]{
		configmanager.ClusterNameFieldSelector(),
		configmanager.KubeconfigFieldSelector(),
	})

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	cmd.RunE = di.RunEWithRuntime(
		runtimeContainer,
		di.WithTimer(func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			return handleDeleteRunE(cmd, injector, cfgManager, tmr, force)
		}),
	)

	return cmd
}

func handleDeleteRunE(
	cmd *cobra.Command,
	injector di.Injector,
	cfgManager *configmanager.ConfigManager,
	tmr timer.Timer,
	force bool,
) error {
	tmr.Start()

	cfg, err := cfgManager.LoadConfigSilent()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	name := cfg.Cluster.Name

	provisioner, err := newProvisioner(cmd, injector, provisionerOptions(cfg, helpers.KubeconfigPath(cfg)))
	if err != nil {
		return err
	}

	exists, err := provisioner.Exists(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("check cluster: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clustererrors.ErrClusterNotFound, name)
	}

	if !confirm.ShouldSkipPrompt(force) {
		nodes, err := provisioner.ListNodes(cmd.Context(), name)
		if err != nil {
			notify.Warningf(cmd.OutOrStdout(), "could not list nodes: %v", err)
		}

		err = confirm.ConfirmDeletion(cmd.OutOrStdout(), &confirm.DeletionPreview{
			Kind:       "Cluster",
			Name:       name,
			Dependents: []confirm.Dependents{{Label: "Nodes", Names: nodes}},
		}, false)
		if err != nil {
			return err
		}
	}

	return helpers.RunStage(cmd, tmr, helpers.StageInfo{
		Title:         "Delete cluster...",
		Emoji:         "🗑️",
		Activity:      fmt.Sprintf("deleting kind cluster '%s'", name),
		Success:       fmt.Sprintf("cluster '%s' deleted", name),
		FailurePrefix: "delete cluster",
	}, func(ctx context.Context) error {
		return provisioner.Delete(ctx, name)
	})
}
