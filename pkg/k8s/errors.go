package k8s

import "errors"

var (
	// ErrKubeconfigPathEmpty is returned when a command needs a kubeconfig but none is configured.
	ErrKubeconfigPathEmpty = errors.New("kubeconfig path is empty")
	// ErrNotInCluster is returned when the controller is told to run in cluster
	// without a service account mounted.
	ErrNotInCluster = errors.New("no in-cluster service account config")
)
