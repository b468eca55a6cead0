// Package readiness provides Kubernetes resource readiness polling utilities.
//
// Every wait in rollctl goes through PollForReadiness so that timeouts surface
// as ErrTimeoutExceeded:
//   - Deployment and DaemonSet readiness (WaitForDeploymentReady, WaitForDaemonSetReady)
//   - Node and API server readiness (WaitForNodeReady, WaitForAPIServerReady)
//   - CRD establishment (WaitForCRDEstablished)
//   - Rollout phase transitions (WaitForRolloutPhase)
//   - Multi-resource coordination (WaitForMultipleResources)
package readiness
