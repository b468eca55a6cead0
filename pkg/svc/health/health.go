// Package health evaluates the health of a single rollout revision from its
// Deployment and pods.
package health

import (
	"fmt"
	"slices"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// Reasons reported for degraded revisions.
const (
	ReasonRestartsExceeded  = "RestartsExceeded"
	ReasonProgressDeadline  = "ProgressDeadlineExceeded"
	ReasonWaitingForPods    = "WaitingForPods"
	ReasonAvailable         = "Available"
	reasonDeploymentChanged = "DeploymentNotObserved"
)

// degradedWaitingReasons are container waiting reasons that never resolve on their own.
//
//nolint:gochecknoglobals // fixed lookup table
var degradedWaitingReasons = []string{
	"CrashLoopBackOff",
	"ImagePullBackOff",
	"ErrImagePull",
	"CreateContainerConfigError",
	"InvalidImageName",
}

// Policy tunes what counts as degraded.
type Policy struct {
	// MaxRestarts, when set, degrades a revision whose pods restarted more often in total.
	MaxRestarts *int32
}

// RevisionHealth is the evaluated health of a revision.
type RevisionHealth struct {
	Phase     v1alpha1.Phase
	Ready     int32
	Available int32
	Restarts  int32
	Reason    string
	Message   string
}

// Evaluate derives the health of a revision.
//
// The revision is Degraded when a container waits for a reason that never
// resolves, when restarts exceed the policy, or when its Deployment reports
// Progressing=False. It is Healthy once every desired replica is available and
// Progressing otherwise.
func Evaluate(deployment *appsv1.Deployment, pods []corev1.Pod, policy Policy) RevisionHealth {
	result := RevisionHealth{
		Ready:     deployment.Status.ReadyReplicas,
		Available: deployment.Status.AvailableReplicas,
	}

	for i := range pods {
		restarts, reason, message := inspectPod(&pods[i])
		result.Restarts += restarts

		if reason != "" && result.Reason == "" {
			result.Phase = v1alpha1.PhaseDegraded
			result.Reason = reason
			result.Message = fmt.Sprintf("pod %s: %s", pods[i].Name, message)
		}
	}

	if result.Phase == v1alpha1.PhaseDegraded {
		return result
	}

	if policy.MaxRestarts != nil && result.Restarts > *policy.MaxRestarts {
		result.Phase = v1alpha1.PhaseDegraded
		result.Reason = ReasonRestartsExceeded
		result.Message = fmt.Sprintf("pods restarted %d times, more than the allowed %d",
			result.Restarts, *policy.MaxRestarts)

		return result
	}

	if cond := progressingCondition(deployment); cond != nil && cond.Status == corev1.ConditionFalse {
		result.Phase = v1alpha1.PhaseDegraded
		result.Reason = ReasonProgressDeadline
		result.Message = cond.Message

		return result
	}

	desired := int32(1)
	if deployment.Spec.Replicas != nil {
		desired = *deployment.Spec.Replicas
	}

	switch {
	case deployment.Generation > deployment.Status.ObservedGeneration:
		result.Phase = v1alpha1.PhaseProgressing
		result.Reason = reasonDeploymentChanged
	case result.Available >= desired:
		result.Phase = v1alpha1.PhaseHealthy
		result.Reason = ReasonAvailable
	default:
		result.Phase = v1alpha1.PhaseProgressing
		result.Reason = ReasonWaitingForPods
		result.Message = fmt.Sprintf("%d of %d replicas available", result.Available, desired)
	}

	return result
}

// --- internals ---

func inspectPod(pod *corev1.Pod) (int32, string, string) {
	var (
		restarts int32
		reason   string
		message  string
	)

	statuses := slices.Concat(pod.Status.InitContainerStatuses, pod.Status.ContainerStatuses)

	for _, status := range statuses {
		restarts += status.RestartCount

		waiting := status.State.Waiting
		if reason == "" && waiting != nil && slices.Contains(degradedWaitingReasons, waiting.Reason) {
			reason = waiting.Reason
			message = fmt.Sprintf("container %s is in %s", status.Name, waiting.Reason)

			if waiting.Message != "" {
				message += ": " + waiting.Message
			}
		}
	}

	return restarts, reason, message
}

func progressingCondition(deployment *appsv1.Deployment) *appsv1.DeploymentCondition {
	for i := range deployment.Status.Conditions {
		if deployment.Status.Conditions[i].Type == appsv1.DeploymentProgressing {
			return &deployment.Status.Conditions[i]
		}
	}

	return nil
}
