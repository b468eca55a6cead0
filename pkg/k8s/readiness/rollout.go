package readiness

import (
	"context"
	"fmt"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
)

// WaitForRolloutPhase waits until the rollout reaches the wanted phase for its
// latest generation. onUpdate, when set, is called with every observed rollout.
//
// Reaching Degraded while waiting for another phase returns ErrRolloutDegraded.
func WaitForRolloutPhase(
	ctx context.Context,
	client dynamic.Interface,
	namespace, name string,
	want v1alpha1.Phase,
	deadline time.Duration,
	onUpdate func(*v1alpha1.Rollout),
) error {
	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		obj, err := client.Resource(v1alpha1.GroupVersionResource).
			Namespace(namespace).
			Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}

			return false, fmt.Errorf("get rollout %s/%s: %w", namespace, name, err)
		}

		rollout, err := v1alpha1.FromUnstructured(obj)
		if err != nil {
			return false, fmt.Errorf("decode rollout %s/%s: %w", namespace, name, err)
		}

		if onUpdate != nil {
			onUpdate(rollout)
		}

		if rollout.Status.ObservedGeneration < rollout.Generation {
			return false, nil
		}

		if rollout.Status.Phase == want {
			return true, nil
		}

		if rollout.Status.Phase == v1alpha1.PhaseDegraded {
			return false, fmt.Errorf("%w: %s", ErrRolloutDegraded, rollout.Status.Message)
		}

		return false, nil
	})
}
