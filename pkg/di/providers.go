package di

import (
	"github.com/devantler-tech/rollctl/pkg/client/docker"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	clusterprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/samber/do/v2"
)

// Dependency providers.

// NewRuntime constructs the shared runtime container used by root command and tests.
// It registers default implementations for the timer, cluster provisioner factory,
// Docker client factory and Kubernetes clients factory.
func NewRuntime() *Runtime {
	return New(
		provideTimer,
		provideClusterProvisionerFactory,
		provideDockerClientFactory,
		provideKubeClientsFactory,
	)
}

// provideTimer registers the timer dependency with the injector.
func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

// provideClusterProvisionerFactory registers the cluster provisioner factory dependency.
func provideClusterProvisionerFactory(i Injector) error {
	do.Provide(i, func(Injector) (clusterprovisioner.Factory, error) {
		return clusterprovisioner.DefaultFactory{}, nil
	})

	return nil
}

func provideDockerClientFactory(i Injector) error {
	do.Provide(i, func(Injector) (docker.Factory, error) {
		return docker.GetDockerClient, nil
	})

	return nil
}

func provideKubeClientsFactory(i Injector) error {
	do.Provide(i, func(Injector) (k8s.ClientsFactory, error) {
		return k8s.NewClientsFromKubeconfig, nil
	})

	return nil
}
