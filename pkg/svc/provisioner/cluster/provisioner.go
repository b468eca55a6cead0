package clusterprovisioner

import (
	"context"
)

// ClusterProvisioner defines methods for managing local Kubernetes clusters
// that rollouts are tried against.
type ClusterProvisioner interface {
	// Create creates a Kubernetes cluster. If name is non-empty, target that name; otherwise use config defaults.
	Create(ctx context.Context, name string) error

	// Delete deletes a Kubernetes cluster by name or config default when name is empty.
	Delete(ctx context.Context, name string) error

	// List lists all Kubernetes clusters.
	List(ctx context.Context) ([]string, error)

	// Exists checks if a Kubernetes cluster exists by name or config default when name is empty.
	Exists(ctx context.Context, name string) (bool, error)

	// ListNodes returns the node container names of a cluster.
	ListNodes(ctx context.Context, name string) ([]string, error)
}
