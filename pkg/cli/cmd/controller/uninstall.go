package controller

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/cli/ui/confirm"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/svc/installer"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const uninstallLongDesc = `Remove the controller, its RBAC and the Rollout CRD.

Deleting the CRD deletes every Rollout and, through owner references, every
revision Deployment. Services applied next to rollouts are kept.

Examples:
  # Uninstall after confirming the rollouts that will be removed
  rollctl controller uninstall

  # Uninstall without prompting
  rollctl controller uninstall --force`

// NewUninstallCmd creates the controller uninstall command.
func NewUninstallCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:          "uninstall",
		Short:        "Uninstall the controller and Rollout CRD",
		Long:         uninstallLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, []configmanager.FieldSelector[configmanager.Config]{
		configmanager.KubeconfigFieldSelector(),
		configmanager.ContextFieldSelector(),
		configmanager.SystemNamespaceFieldSelector(),
	})

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	cmd.RunE = di.RunEWithRuntime(
		runtimeContainer,
		di.WithTimer(func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			tmr.Start()

			cfg, err := cfgManager.LoadConfigSilent()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			clients, err := helpers.KubeClients(injector, cfg)
			if err != nil {
				return err
			}

			inst := installer.NewControllerInstaller(clients, installer.Options{
				Namespace: cfg.Controller.SystemNamespace,
				Writer:    cmd.OutOrStdout(),
			})

			if !confirm.ShouldSkipPrompt(force) {
				err = confirmUninstall(cmd, inst, store.New(clients.Dynamic))
				if err != nil {
					return err
				}
			}

			return helpers.RunStage(cmd, tmr, helpers.StageInfo{
				Title:         "Uninstall controller...",
				Emoji:         "🗑️",
				Activity:      "removing controller and rollout CRD",
				Success:       "controller uninstalled",
				FailurePrefix: "uninstall controller",
			}, inst.Uninstall)
		}),
	)

	return cmd
}

func confirmUninstall(cmd *cobra.Command, inst *installer.ControllerInstaller, rollouts *store.Store) error {
	version, err := inst.InstalledVersion(cmd.Context())
	if err != nil {
		return err
	}

	name := installer.CRDName
	if version != "" {
		name += " (" + version + ")"
	}

	var names []string

	list, err := rollouts.List(cmd.Context(), "")
	if err == nil {
		for _, rollout := range list {
			names = append(names, rollout.Namespace+"/"+rollout.Name)
		}
	}

	return confirm.ConfirmDeletion(cmd.OutOrStdout(), &confirm.DeletionPreview{
		Kind:       "CustomResourceDefinition",
		Name:       name,
		Dependents: []confirm.Dependents{{Label: "Rollouts", Names: names}},
	}, false)
}
