package controller

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/svc/installer"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const installLongDesc = `Install the Rollout CRD and, with --deploy, the controller.

The CRD is stamped with this rollctl version and is left alone when the
cluster already runs the same or a newer version, unless --force is given.
With --deploy the controller runs in --system-namespace under its own service
account, using --image (defaults to the image released with this version).

Examples:
  # Install only the CRD and run the controller locally with 'controller run'
  rollctl controller install

  # Install the CRD and deploy the controller into the cluster
  rollctl controller install --deploy

  # Deploy a locally built controller image loaded with 'image load'
  rollctl controller install --deploy --image rollctl:dev --force`

// NewInstallCmd creates the controller install command.
func NewInstallCmd(runtimeContainer *di.Runtime, version string) *cobra.Command {
	var deploy, force bool

	cmd := &cobra.Command{
		Use:          "install",
		Short:        "Install the Rollout CRD and controller",
		Long:         installLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, installFieldSelectors())

	cmd.Flags().BoolVar(&deploy, "deploy", false, "Also deploy the controller into the cluster")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even when the installed version is newer")

	cmd.RunE = di.RunEWithRuntime(
		runtimeContainer,
		di.WithTimer(func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
			tmr.Start()

			cfg, err := cfgManager.LoadConfig(tmr)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			clients, err := helpers.KubeClients(injector, cfg)
			if err != nil {
				return err
			}

			inst := installer.NewControllerInstaller(clients, installer.Options{
				Version:   version,
				Force:     force,
				Deploy:    deploy,
				Namespace: cfg.Controller.SystemNamespace,
				Image:     cfg.Controller.Image,
				Timeout:   cfg.Connection.Timeout.Duration,
				Writer:    cmd.OutOrStdout(),
			})

			return helpers.RunStage(cmd, tmr, helpers.StageInfo{
				Title:         "Install controller...",
				Emoji:         "⚙️",
				Activity:      "installing rollout CRD",
				Success:       "controller installed",
				FailurePrefix: "install controller",
			}, inst.Install)
		}),
	)

	return cmd
}

func installFieldSelectors() []configmanager.FieldSelector[configmanager.Config] {
	return []configmanager.FieldSelector[configmanager.Config]{
		configmanager.KubeconfigFieldSelector(),
		configmanager.ContextFieldSelector(),
		configmanager.TimeoutFieldSelector(),
		configmanager.ControllerImageFieldSelector(),
		configmanager.SystemNamespaceFieldSelector(),
	}
}

