package cmd

import (
	"context"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/cmd/cluster"
	"github.com/devantler-tech/rollctl/pkg/cli/cmd/controller"
	"github.com/devantler-tech/rollctl/pkg/cli/cmd/image"
	"github.com/devantler-tech/rollctl/pkg/cli/cmd/rollout"
	"github.com/devantler-tech/rollctl/pkg/cli/flags"
	"github.com/devantler-tech/rollctl/pkg/cli/ui/errorhandler"
	runtime "github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/spf13/cobra"
)

const rootLongDesc = `rollctl rolls out Kubernetes workloads with blue-green, canary and
rolling-update strategies.

Rollouts are applied as custom resources and driven by the rollctl controller,
which runs in the cluster ('controller install --deploy') or next to it
('controller run'). Local kind clusters and images can be managed for
development with the cluster and image commands.`

// NewRootCmd creates and returns the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	runtimeContainer := runtime.NewRuntime()

	cmd := &cobra.Command{
		Use:          "rollctl",
		Short:        "Progressive delivery for Kubernetes",
		Long:         rootLongDesc,
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = versionString(version, commit, date)

	cmd.PersistentFlags().String(
		configmanager.ConfigFlag,
		"",
		"Path to a rollctl config file (default ./rollctl.yaml)",
	)
	cmd.PersistentFlags().Bool(
		flags.TimingFlagName,
		false,
		"Show per-activity timing output",
	)

	cmd.AddCommand(newVersionCmd(cmd.Version))
	cmd.AddCommand(rollout.NewRolloutCmd(runtimeContainer))
	cmd.AddCommand(controller.NewControllerCmd(runtimeContainer, version))
	cmd.AddCommand(cluster.NewClusterCmd(runtimeContainer))
	cmd.AddCommand(image.NewImageCmd(runtimeContainer))

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	return ExecuteContext(context.Background(), cmd)
}

// ExecuteContext runs the root command with ctx, which commands observe for cancellation.
func ExecuteContext(ctx context.Context, cmd *cobra.Command) error {
	executor := errorhandler.NewExecutor()

	err := executor.ExecuteContext(ctx, cmd)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// --- internals ---

func versionString(version, commit, date string) string {
	return fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rollctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "rollctl %s\n", version)

			return err
		},
	}
}

func handleRootRunE(
	cmd *cobra.Command,
	_ []string,
) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
