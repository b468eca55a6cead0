// Package docker creates Docker daemon clients for image builds, pushes and
// node loads.
package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// Error definitions for container engine operations.
var (
	// ErrAPIClientNil is returned when apiClient is nil.
	ErrAPIClientNil = errors.New("apiClient cannot be nil")

	// ErrDaemonUnavailable is returned when the daemon does not answer a ping.
	ErrDaemonUnavailable = errors.New("docker daemon is not available")
)

// Factory creates a Docker client. Callers close the client.
type Factory func() (client.APIClient, error)

// Pinger is the part of the Docker API needed to probe the daemon.
type Pinger interface {
	Ping(ctx context.Context) (types.Ping, error)
}

// GetDockerClient creates a Docker client using environment configuration.
func GetDockerClient() (client.APIClient, error) {
	dockerClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return dockerClient, nil
}

// EnsureAvailable pings the daemon behind apiClient.
func EnsureAvailable(ctx context.Context, apiClient Pinger) error {
	if apiClient == nil {
		return ErrAPIClientNil
	}

	_, err := apiClient.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}

	return nil
}
