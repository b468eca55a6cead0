// Package svc provides service layer components for rollctl.
//
// This package contains the business logic layer that coordinates between
// the CLI commands and the underlying clients/infrastructure.
//
// Subpackages:
//   - action: User actions on rollouts (promote, abort, undo, set-image...)
//   - controller: Controller runtime wiring with manager and poll engines
//   - health: Pod and revision health evaluation
//   - image: Image build, push and load into kind nodes
//   - installer: Rollout CRD and controller installation
//   - journal: SQLite journal of rollout events
//   - manifest: Manifest loading and apply
//   - provisioner: Local kind clusters
//   - reconciler: The rollout reconcile loop
//   - revision: Revision hashing and revision Deployments
//   - store: Rollout persistence through the dynamic client
//   - strategy: Blue-green, canary and rolling-update planning
//   - traffic: Service selector switching and replica-based weighting
package svc
