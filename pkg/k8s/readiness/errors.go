package readiness

import "errors"

// ErrTimeoutExceeded is returned when a timeout is exceeded.
var ErrTimeoutExceeded = errors.New("timeout exceeded")

// ErrRolloutDegraded is returned by WaitForRolloutPhase when the rollout degrades
// while waiting for another phase.
var ErrRolloutDegraded = errors.New("rollout degraded")

var errUnknownResourceType = errors.New("unknown resource type")
