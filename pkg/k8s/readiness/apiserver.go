package readiness

import (
	"context"
	"time"

	"k8s.io/client-go/kubernetes"
)

// WaitForAPIServerReady waits until the API server answers a ServerVersion request.
//
// A freshly created kind cluster can refuse connections for a few seconds after
// its kubeconfig is written, so callers run this before the first real request.
func WaitForAPIServerReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(_ context.Context) (bool, error) {
		_, err := clientset.Discovery().ServerVersion()
		if err != nil {
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return true, nil
	})
}
