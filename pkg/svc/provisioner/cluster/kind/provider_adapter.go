package kindprovisioner

import (
	"fmt"

	"sigs.k8s.io/kind/pkg/cluster"
	"sigs.k8s.io/kind/pkg/log"
)

// KindProvider describes the subset of methods from kind's Provider used here.
type KindProvider interface {
	Create(name string, opts ...cluster.CreateOption) error
	Delete(name, kubeconfigPath string) error
	List() ([]string, error)
	ListNodes(name string) ([]string, error)
	KubeConfig(name string, internal bool) (string, error)
}

// DefaultProviderAdapter wraps the kind library's Provider.
type DefaultProviderAdapter struct {
	provider *cluster.Provider
}

// NewDefaultProviderAdapter creates a kind provider that logs through logger and
// uses the node runtime kind detects (docker, podman or nerdctl).
func NewDefaultProviderAdapter(logger log.Logger) *DefaultProviderAdapter {
	opts := []cluster.ProviderOption{cluster.ProviderWithLogger(logger)}

	runtime, err := cluster.DetectNodeProvider()
	if err == nil && runtime != nil {
		opts = append(opts, runtime)
	}

	return &DefaultProviderAdapter{
		provider: cluster.NewProvider(opts...),
	}
}

// Create creates a new kind cluster.
func (a *DefaultProviderAdapter) Create(name string, opts ...cluster.CreateOption) error {
	err := a.provider.Create(name, opts...)
	if err != nil {
		return fmt.Errorf("kind create: %w", err)
	}

	return nil
}

// Delete deletes a kind cluster.
func (a *DefaultProviderAdapter) Delete(name, kubeconfigPath string) error {
	err := a.provider.Delete(name, kubeconfigPath)
	if err != nil {
		return fmt.Errorf("kind delete: %w", err)
	}

	return nil
}

// List lists all kind clusters.
func (a *DefaultProviderAdapter) List() ([]string, error) {
	clusters, err := a.provider.List()
	if err != nil {
		return nil, fmt.Errorf("kind list: %w", err)
	}

	return clusters, nil
}

// ListNodes lists the Kubernetes node containers of a kind cluster. The
// external load balancer of multi control-plane clusters is skipped.
func (a *DefaultProviderAdapter) ListNodes(name string) ([]string, error) {
	nodes, err := a.provider.ListInternalNodes(name)
	if err != nil {
		return nil, fmt.Errorf("kind list nodes: %w", err)
	}

	nodeNames := make([]string, len(nodes))
	for i, node := range nodes {
		nodeNames[i] = node.String()
	}

	return nodeNames, nil
}

// KubeConfig returns the kubeconfig of a kind cluster.
func (a *DefaultProviderAdapter) KubeConfig(name string, internal bool) (string, error) {
	kubeconfig, err := a.provider.KubeConfig(name, internal)
	if err != nil {
		return "", fmt.Errorf("kind kubeconfig: %w", err)
	}

	return kubeconfig, nil
}
