// Package rollout implements the rollout commands: applying Rollout manifests,
// inspecting their progress and steering a rollout by promoting, aborting,
// pausing or undoing it.
package rollout

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/devantler-tech/rollctl/pkg/svc/action"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"github.com/spf13/cobra"
)

// NewRolloutCmd creates the rollout command group.
func NewRolloutCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rollout",
		Aliases: []string{"rollouts", "ro"},
		Short:   "Apply, inspect and steer rollouts",
		Long: "Apply Rollout manifests and follow them through blue-green, canary and " +
			"rolling-update deployments. Promote, abort, retry, pause, resume or undo a " +
			"rollout while it progresses.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(NewApplyCmd(runtimeContainer))
	cmd.AddCommand(NewGetCmd(runtimeContainer))
	cmd.AddCommand(NewListCmd(runtimeContainer))
	cmd.AddCommand(NewStatusCmd(runtimeContainer))
	cmd.AddCommand(NewHistoryCmd(runtimeContainer))
	cmd.AddCommand(NewDeleteCmd(runtimeContainer))

	for _, actionCmd := range NewActionCmds(runtimeContainer) {
		cmd.AddCommand(actionCmd)
	}

	return cmd
}

// session bundles what a rollout command needs once config and clients are resolved.
type session struct {
	cfg       *configmanager.Config
	namespace string
	clients   *k8s.Clients
	rollouts  *store.Store
	actions   *action.Service
}

func newConfigManager(cmd *cobra.Command, extra ...configmanager.FieldSelector[configmanager.Config]) *configmanager.ConfigManager {
	return configmanager.NewCommandConfigManager(cmd, append(configmanager.ConnectionFieldSelectors(), extra...))
}

func newSession(injector di.Injector, cfgManager *configmanager.ConfigManager) (*session, error) {
	cfg, err := cfgManager.LoadConfigSilent()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	clients, err := helpers.KubeClients(injector, cfg)
	if err != nil {
		return nil, err
	}

	rollouts := store.New(clients.Dynamic)

	return &session{
		cfg:       cfg,
		namespace: helpers.Namespace(cfg),
		clients:   clients,
		rollouts:  rollouts,
		actions:   action.New(rollouts, clients.Kube),
	}, nil
}
