// Package v1alpha1 contains the rollctl.io/v1alpha1 API types.
//
// A Rollout wraps a pod template with one of three strategies:
//   - BlueGreen: run the new revision next to the stable one, then switch the active Service
//   - RollingUpdate: replace pods incrementally within maxSurge/maxUnavailable bounds
//   - Canary: shift replicas to the new revision through weight, pause and analysis steps
//
// The package also provides defaulting (SetDefaults), validation (Validate) and
// conversion helpers for dynamic clients and YAML manifests.
package v1alpha1
