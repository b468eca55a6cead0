// Package clustererrors provides the sentinel errors shared by cluster
// provisioners so command handlers can branch on them.
package clustererrors

import "errors"

var (
	// ErrClusterNotFound is returned when deleting or inspecting a cluster that does not exist.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrClusterExists is returned when creating a cluster whose name is taken.
	ErrClusterExists = errors.New("cluster already exists")

	// ErrNoNodesFound is returned when a cluster has no nodes.
	ErrNoNodesFound = errors.New("no nodes found for cluster")
)
