package readiness

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// WaitForDeploymentReady waits until the deployment's latest generation is fully
// rolled out and every desired replica is available.
func WaitForDeploymentReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name string,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		deployment, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}

			return false, fmt.Errorf("get deployment %s/%s: %w", namespace, name, err)
		}

		return IsDeploymentReady(deployment), nil
	})
}

// WaitForDaemonSetReady waits until every scheduled daemon pod is updated and available.
func WaitForDaemonSetReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name string,
	deadline time.Duration,
) error {
	return PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		daemonSet, err := clientset.AppsV1().DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}

			return false, fmt.Errorf("get daemonset %s/%s: %w", namespace, name, err)
		}

		return IsDaemonSetReady(daemonSet), nil
	})
}

// IsDeploymentReady reports whether a deployment has converged on its spec.
func IsDeploymentReady(deployment *appsv1.Deployment) bool {
	if deployment.Generation > deployment.Status.ObservedGeneration {
		return false
	}

	desired := int32(1)
	if deployment.Spec.Replicas != nil {
		desired = *deployment.Spec.Replicas
	}

	return deployment.Status.UpdatedReplicas >= desired &&
		deployment.Status.AvailableReplicas >= desired &&
		deployment.Status.Replicas == deployment.Status.UpdatedReplicas
}

// IsDaemonSetReady reports whether every scheduled daemon pod is updated and available.
func IsDaemonSetReady(daemonSet *appsv1.DaemonSet) bool {
	if daemonSet.Generation > daemonSet.Status.ObservedGeneration {
		return false
	}

	return daemonSet.Status.NumberUnavailable == 0 &&
		daemonSet.Status.UpdatedNumberScheduled == daemonSet.Status.DesiredNumberScheduled
}
