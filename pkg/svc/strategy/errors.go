package strategy

import "errors"

// ErrNoCurrentRevision is returned when the observation lacks the revision for
// the rollout's current template.
var ErrNoCurrentRevision = errors.New("current revision not observed")
