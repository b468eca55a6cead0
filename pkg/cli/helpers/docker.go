package helpers

import (
	"context"
	"fmt"

	dockerclient "github.com/devantler-tech/rollctl/pkg/client/docker"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
)

// WithDockerClient creates a Docker client through factory, verifies the
// daemon answers, runs operation and closes the client afterwards.
func WithDockerClient(
	cmd *cobra.Command,
	factory dockerclient.Factory,
	operation func(client.APIClient) error,
) error {
	apiClient, err := factory()
	if err != nil {
		return fmt.Errorf("create docker client: %w", err)
	}

	return WithDockerClientInstance(cmd, apiClient, func(c client.APIClient) error {
		err := dockerclient.EnsureAvailable(commandContext(cmd), c)
		if err != nil {
			return fmt.Errorf("check docker: %w", err)
		}

		return operation(c)
	})
}

// WithDockerClientInstance runs operation with an existing client and closes
// it afterwards. A failing close is reported as a warning and never masks the
// operation's result.
func WithDockerClientInstance(
	cmd *cobra.Command,
	apiClient client.APIClient,
	operation func(client.APIClient) error,
) error {
	defer func() {
		closeErr := apiClient.Close()
		if closeErr != nil {
			notify.WriteMessage(notify.Message{
				Type:    notify.WarningType,
				Content: "cleanup warning: %v",
				Args:    []any{closeErr},
				Writer:  cmd.OutOrStdout(),
			})
		}
	}()

	return operation(apiClient)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
