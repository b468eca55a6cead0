package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// PollInterval is the time between two readiness checks.
const PollInterval = 2 * time.Second

// PollForReadiness calls poll every PollInterval until it reports ready, returns
// an error, or the deadline passes. The first check runs immediately.
func PollForReadiness(
	ctx context.Context,
	deadline time.Duration,
	poll func(context.Context) (bool, error),
) error {
	err := wait.PollUntilContextTimeout(ctx, PollInterval, deadline, true, poll)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || wait.Interrupted(err) {
		return fmt.Errorf("%w after %s: %w", ErrTimeoutExceeded, deadline, err)
	}

	return fmt.Errorf("poll for readiness: %w", err)
}
