package kindprovisioner

import "errors"

// ErrInvalidWorkers is returned when a negative worker count is configured.
var ErrInvalidWorkers = errors.New("worker count must not be negative")
