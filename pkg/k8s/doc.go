// Package k8s provides Kubernetes client configuration and general-purpose utilities.
//
// This package builds REST configs from kubeconfig files (or the in-cluster
// service account), bundles the typed, dynamic and apiextensions clients used by
// rollctl, and ensures namespaces exist.
//
// For resource readiness polling, see the [readiness] sub-package.
package k8s
