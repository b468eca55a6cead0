package di

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/client/docker"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	clusterprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Dependency resolvers.

// ResolveTimer retrieves the timer dependency from the injector with consistent error handling.
func ResolveTimer(injector Injector) (timer.Timer, error) {
	tmr, err := do.Invoke[timer.Timer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve timer dependency: %w", err)
	}

	return tmr, nil
}

// ResolveClusterProvisionerFactory retrieves the cluster provisioner factory dependency
// from the injector with consistent error handling.
func ResolveClusterProvisionerFactory(
	injector Injector,
) (clusterprovisioner.Factory, error) {
	factory, err := do.Invoke[clusterprovisioner.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve provisioner factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveDockerClientFactory retrieves the Docker client factory.
func ResolveDockerClientFactory(injector Injector) (docker.Factory, error) {
	factory, err := do.Invoke[docker.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve docker client factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveKubeClientsFactory retrieves the Kubernetes clients factory.
func ResolveKubeClientsFactory(injector Injector) (k8s.ClientsFactory, error) {
	factory, err := do.Invoke[k8s.ClientsFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve kube clients factory dependency: %w", err)
	}

	return factory, nil
}

// Handler decorators.

// WithTimer decorates a handler to automatically resolve the timer dependency.
// This higher-order function simplifies command handlers that need timer access.
func WithTimer(
	handler func(cmd *cobra.Command, injector Injector, tmr timer.Timer) error,
) func(cmd *cobra.Command, injector Injector) error {
	return func(cmd *cobra.Command, injector Injector) error {
		tmr, err := ResolveTimer(injector)
		if err != nil {
			return err
		}

		return handler(cmd, injector, tmr)
	}
}
