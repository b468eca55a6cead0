// Package controller implements the controller commands: installing the
// Rollout CRD and controller into a cluster and running the controller.
package controller

import (
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/spf13/cobra"
)

// NewControllerCmd creates the controller command group. version selects the
// CRD version stamp and the default controller image.
func NewControllerCmd(runtimeContainer *di.Runtime, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Install, uninstall and run the rollout controller",
		Long: "Install the Rollout CRD and controller into a cluster, remove them again, " +
			"or run the controller from this machine against any cluster.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(NewInstallCmd(runtimeContainer, version))
	cmd.AddCommand(NewUninstallCmd(runtimeContainer))
	cmd.AddCommand(NewRunCmd(runtimeContainer))

	return cmd
}
