package readiness

import (
	"context"
	"fmt"
	"time"

	"k8s.io/client-go/kubernetes"
)

// Check describes one resource WaitForMultipleResources waits for.
type Check struct {
	// Type is "deployment" or "daemonset".
	Type      string
	Namespace string
	Name      string
}

// WaitForMultipleResources waits for every check in order. The deadline is shared
// across all checks.
func WaitForMultipleResources(
	ctx context.Context,
	clientset kubernetes.Interface,
	checks []Check,
	deadline time.Duration,
) error {
	start := time.Now()

	for _, check := range checks {
		remaining := deadline - time.Since(start)
		if remaining <= 0 {
			return fmt.Errorf("%w waiting for %s %s/%s", ErrTimeoutExceeded, check.Type, check.Namespace, check.Name)
		}

		err := waitForCheck(ctx, clientset, check, remaining)
		if err != nil {
			return err
		}
	}

	return nil
}

func waitForCheck(ctx context.Context, clientset kubernetes.Interface, check Check, deadline time.Duration) error {
	var err error

	switch check.Type {
	case "deployment":
		err = WaitForDeploymentReady(ctx, clientset, check.Namespace, check.Name, deadline)
	case "daemonset":
		err = WaitForDaemonSetReady(ctx, clientset, check.Namespace, check.Name, deadline)
	default:
		return fmt.Errorf("%w: %s", errUnknownResourceType, check.Type)
	}

	if err != nil {
		return fmt.Errorf("wait for %s %s/%s: %w", check.Type, check.Namespace, check.Name, err)
	}

	return nil
}
