package revision

import (
	"maps"
	"strconv"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/utils/ptr"
)

// Build returns the Deployment for one revision of the rollout.
//
// The Deployment is owned by the rollout and selects pods by rollout name and
// revision hash. Its own rollout mechanism is disabled by a Recreate strategy so
// that only rollctl moves replicas between revisions. The submitted template is
// kept in AnnotationTemplate so an undo can restore it without server defaults.
func Build(rollout *v1alpha1.Rollout, hash string, number int64, replicas int32) *appsv1.Deployment {
	template := StripLabels(rollout.Spec.Template)

	annotations := map[string]string{
		AnnotationRevisionNumber: strconv.FormatInt(number, 10),
	}

	if submitted, err := utiljson.Marshal(template); err == nil {
		annotations[AnnotationTemplate] = string(submitted)
	}

	selector := map[string]string{
		LabelRollout:  rollout.Name,
		LabelRevision: hash,
	}

	podLabels := maps.Clone(template.Labels)
	if podLabels == nil {
		podLabels = make(map[string]string, len(selector))
	}

	maps.Copy(podLabels, selector)
	template.Labels = podLabels

	deploymentLabels := maps.Clone(rollout.Labels)
	if deploymentLabels == nil {
		deploymentLabels = make(map[string]string, len(selector))
	}

	maps.Copy(deploymentLabels, selector)

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        Name(rollout.Name, hash),
			Namespace:   rollout.Namespace,
			Labels:      deploymentLabels,
			Annotations: annotations,
			OwnerReferences: []metav1.OwnerReference{
				*metav1.NewControllerRef(rollout, v1alpha1.GroupVersionKind),
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas:                ptr.To(replicas),
			Selector:                &metav1.LabelSelector{MatchLabels: selector},
			Template:                template,
			MinReadySeconds:         rollout.Spec.MinReadySeconds,
			ProgressDeadlineSeconds: rollout.Spec.ProgressDeadlineSeconds,
			RevisionHistoryLimit:    ptr.To[int32](0),
			Strategy:                appsv1.DeploymentStrategy{Type: appsv1.RecreateDeploymentStrategyType},
		},
	}
}
