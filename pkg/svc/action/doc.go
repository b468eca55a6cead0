// Package action implements the user-facing operations on a Rollout: promote,
// abort, retry, pause, resume, undo, set-image and restart.
//
// Control requests travel through the rollout's status control fields and spec,
// the controller picks them up on its next pass.
package action
