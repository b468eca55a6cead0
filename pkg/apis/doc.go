// Package apis provides API type definitions for rollctl resources.
//
// This package contains versioned API types following Kubernetes API conventions:
//
//   - rollout: the Rollout custom resource and its status
package apis
