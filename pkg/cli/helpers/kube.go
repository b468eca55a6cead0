package helpers

import (
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/k8s"
)

// KubeClients resolves the client factory from the injector and builds
// clients for the kubeconfig and context named in cfg.
func KubeClients(injector di.Injector, cfg *configmanager.Config) (*k8s.Clients, error) {
	factory, err := di.ResolveKubeClientsFactory(injector)
	if err != nil {
		return nil, err
	}

	kubeconfig := KubeconfigPath(cfg)

	clients, err := factory(kubeconfig, cfg.Connection.Context)
	if err != nil {
		return nil, fmt.Errorf("connect to cluster using %q: %w", kubeconfig, err)
	}

	return clients, nil
}

// KubeconfigPath returns the configured kubeconfig with ~ expanded, falling
// back to the default location.
func KubeconfigPath(cfg *configmanager.Config) string {
	path := cfg.Connection.Kubeconfig
	if path == "" {
		path = configmanager.DefaultKubeconfig
	}

	return k8s.ExpandHomePath(path)
}

// Namespace returns the configured namespace or the default one.
func Namespace(cfg *configmanager.Config) string {
	if cfg.Connection.Namespace == "" {
		return configmanager.DefaultNamespace
	}

	return cfg.Connection.Namespace
}
