package kindprovisioner

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/devantler-tech/rollctl/pkg/k8s/readiness"
	clustererrors "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/errors"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
	"sigs.k8s.io/kind/pkg/cluster"
)

// Defaults for kind clusters.
const (
	DefaultClusterName  = "rollctl"
	DefaultWaitForReady = 5 * time.Minute
)

// Options configures cluster creation.
type Options struct {
	// Name is used when callers pass an empty name.
	Name string
	// NodeImage overrides the kind node image. Defaults to DefaultNodeImage().
	NodeImage string
	// Workers is the number of worker nodes next to the control plane.
	Workers int
	// ConfigPath is an optional kind config file. It replaces the generated topology.
	ConfigPath string
	// KubeconfigPath is where kind merges the cluster's kubeconfig.
	KubeconfigPath string
	// WaitForReady bounds the wait for all nodes to be Ready. Zero skips it.
	WaitForReady time.Duration
}

// ClientsetFactory builds a clientset from kubeconfig content.
type ClientsetFactory func(kubeconfig string) (kubernetes.Interface, error)

// KindClusterProvisioner provisions kind clusters through kind's Go API.
type KindClusterProvisioner struct {
	opts             Options
	provider         KindProvider
	clientsetFactory ClientsetFactory
}

// NewKindClusterProvisioner constructs a KindClusterProvisioner.
func NewKindClusterProvisioner(opts Options, provider KindProvider) *KindClusterProvisioner {
	if opts.Name == "" {
		opts.Name = DefaultClusterName
	}

	if opts.NodeImage == "" {
		opts.NodeImage = DefaultNodeImage()
	}

	if opts.KubeconfigPath == "" {
		opts.KubeconfigPath = k8s.DefaultKubeconfigPath()
	}

	return &KindClusterProvisioner{
		opts:             opts,
		provider:         provider,
		clientsetFactory: clientsetFromKubeconfig,
	}
}

// WithClientsetFactory replaces how the post-create readiness check reaches the cluster.
func (k *KindClusterProvisioner) WithClientsetFactory(factory ClientsetFactory) *KindClusterProvisioner {
	k.clientsetFactory = factory

	return k
}

// Create creates a kind cluster and waits for its nodes to become Ready.
// Returns clustererrors.ErrClusterExists if the name is taken.
func (k *KindClusterProvisioner) Create(ctx context.Context, name string) error {
	if k.opts.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, k.opts.Workers)
	}

	target := k.target(name)

	exists, err := k.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to check cluster existence: %w", err)
	}

	if exists {
		return fmt.Errorf("%w: %s", clustererrors.ErrClusterExists, target)
	}

	err = k.provider.Create(target, k.createOptions(target)...)
	if err != nil {
		return fmt.Errorf("failed to create kind cluster: %w", err)
	}

	if k.opts.WaitForReady <= 0 {
		return nil
	}

	kubeconfig, err := k.provider.KubeConfig(target, false)
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	clientset, err := k.clientsetFactory(kubeconfig)
	if err != nil {
		return err
	}

	err = readiness.WaitForNodeReady(ctx, clientset, k.opts.WaitForReady)
	if err != nil {
		return fmt.Errorf("nodes of %s not ready: %w", target, err)
	}

	return nil
}

// Delete deletes a kind cluster.
// Returns clustererrors.ErrClusterNotFound if the cluster does not exist.
func (k *KindClusterProvisioner) Delete(ctx context.Context, name string) error {
	target := k.target(name)

	exists, err := k.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to check cluster existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clustererrors.ErrClusterNotFound, target)
	}

	err = k.provider.Delete(target, k8s.ExpandHomePath(k.opts.KubeconfigPath))
	if err != nil {
		return fmt.Errorf("failed to delete kind cluster: %w", err)
	}

	return nil
}

// List returns all kind clusters.
func (k *KindClusterProvisioner) List(_ context.Context) ([]string, error) {
	clusters, err := k.provider.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list kind clusters: %w", err)
	}

	return clusters, nil
}

// Exists checks if a kind cluster exists.
func (k *KindClusterProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := k.List(ctx)
	if err != nil {
		return false, err
	}

	return slices.Contains(clusters, k.target(name)), nil
}

// ListNodes returns the node container names of a cluster.
func (k *KindClusterProvisioner) ListNodes(ctx context.Context, name string) ([]string, error) {
	target := k.target(name)

	exists, err := k.Exists(ctx, target)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, fmt.Errorf("%w: %s", clustererrors.ErrClusterNotFound, target)
	}

	nodes, err := k.provider.ListNodes(target)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	return nodes, nil
}

// Config returns the kind topology used when no config file is set.
func (k *KindClusterProvisioner) Config(name string) *v1alpha4.Cluster {
	config := &v1alpha4.Cluster{
		TypeMeta: v1alpha4.TypeMeta{
			Kind:       "Cluster",
			APIVersion: "kind.x-k8s.io/v1alpha4",
		},
		Name: k.target(name),
		Nodes: []v1alpha4.Node{
			{Role: v1alpha4.ControlPlaneRole, Image: k.opts.NodeImage},
		},
	}

	for range k.opts.Workers {
		config.Nodes = append(config.Nodes, v1alpha4.Node{
			Role:  v1alpha4.WorkerRole,
			Image: k.opts.NodeImage,
		})
	}

	return config
}

// --- internals ---

func (k *KindClusterProvisioner) createOptions(target string) []cluster.CreateOption {
	opts := []cluster.CreateOption{
		cluster.CreateWithNodeImage(k.opts.NodeImage),
		cluster.CreateWithKubeconfigPath(k8s.ExpandHomePath(k.opts.KubeconfigPath)),
		cluster.CreateWithDisplayUsage(false),
		cluster.CreateWithDisplaySalutation(false),
	}

	if k.opts.ConfigPath != "" {
		return append(opts, cluster.CreateWithConfigFile(k.opts.ConfigPath))
	}

	return append(opts, cluster.CreateWithV1Alpha4Config(k.Config(target)))
}

func (k *KindClusterProvisioner) target(name string) string {
	if name != "" {
		return name
	}

	return k.opts.Name
}

func clientsetFromKubeconfig(kubeconfig string) (kubernetes.Interface, error) {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig([]byte(kubeconfig))
	if err != nil {
		return nil, fmt.Errorf("failed to parse kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return clientset, nil
}
