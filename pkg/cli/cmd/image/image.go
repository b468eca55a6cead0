// Package image implements the image commands: building application images,
// pushing them to a registry and loading them onto kind nodes.
package image

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
)

// NewImageCmd creates the image command group.
func NewImageCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Build, push and load container images",
		Long: "Build application images with the local Docker daemon, push them to a registry " +
			"or load them straight onto the nodes of a kind cluster.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(NewBuildCmd(runtimeContainer))
	cmd.AddCommand(NewPushCmd(runtimeContainer))
	cmd.AddCommand(NewLoadCmd(runtimeContainer))

	return cmd
}

// withDocker resolves the Docker client factory and runs operation with a live client.
func withDocker(cmd *cobra.Command, injector di.Injector, operation func(client.APIClient) error) error {
	factory, err := di.ResolveDockerClientFactory(injector)
	if err != nil {
		return err
	}

	err = helpers.WithDockerClient(cmd, factory, operation)
	if err != nil {
		return fmt.Errorf("docker: %w", err)
	}

	return nil
}
