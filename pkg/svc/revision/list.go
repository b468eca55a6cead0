package revision

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	"k8s.io/client-go/kubernetes"
)

// Revision is one observed revision Deployment of a rollout.
type Revision struct {
	Hash       string
	Number     int64
	Deployment *appsv1.Deployment
}

// Replicas returns the revision's desired replica count.
func (r Revision) Replicas() int32 {
	if r.Deployment.Spec.Replicas == nil {
		return 1
	}

	return *r.Deployment.Spec.Replicas
}

// Template returns the pod template the revision was built from. Revisions
// without AnnotationTemplate fall back to the Deployment's own template.
func (r Revision) Template() (corev1.PodTemplateSpec, error) {
	submitted, ok := r.Deployment.Annotations[AnnotationTemplate]
	if !ok {
		return StripLabels(r.Deployment.Spec.Template), nil
	}

	var template corev1.PodTemplateSpec

	err := utiljson.Unmarshal([]byte(submitted), &template)
	if err != nil {
		return corev1.PodTemplateSpec{}, fmt.Errorf("decode template of revision %s: %w", r.Hash, err)
	}

	return StripLabels(template), nil
}

// Selector matches every revision, pod and service endpoint of a rollout.
func Selector(rollout string) labels.Selector {
	return labels.SelectorFromSet(labels.Set{LabelRollout: rollout})
}

// List returns the revisions of a rollout sorted by revision number, oldest first.
func List(ctx context.Context, clientset kubernetes.Interface, namespace, rollout string) ([]Revision, error) {
	deployments, err := clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: Selector(rollout).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list revisions of %s/%s: %w", namespace, rollout, err)
	}

	revisions := make([]Revision, 0, len(deployments.Items))

	for i := range deployments.Items {
		deployment := &deployments.Items[i]

		hash := deployment.Labels[LabelRevision]
		if hash == "" {
			continue
		}

		revisions = append(revisions, Revision{
			Hash:       hash,
			Number:     Number(deployment),
			Deployment: deployment,
		})
	}

	slices.SortFunc(revisions, func(a, b Revision) int {
		return cmp.Or(cmp.Compare(a.Number, b.Number), cmp.Compare(a.Hash, b.Hash))
	})

	return revisions, nil
}

// ListPods returns the pods of one revision.
func ListPods(ctx context.Context, clientset kubernetes.Interface, namespace, rollout, hash string) ([]corev1.Pod, error) {
	pods, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labels.SelectorFromSet(labels.Set{
			LabelRollout:  rollout,
			LabelRevision: hash,
		}).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list pods of revision %s: %w", hash, err)
	}

	return pods.Items, nil
}

// Number returns a revision's number, 0 when the annotation is missing or invalid.
func Number(deployment *appsv1.Deployment) int64 {
	number, err := strconv.ParseInt(deployment.Annotations[AnnotationRevisionNumber], 10, 64)
	if err != nil {
		return 0
	}

	return number
}

// NextNumber returns the number the next new revision gets.
func NextNumber(revisions []Revision) int64 {
	var highest int64

	for _, rev := range revisions {
		highest = max(highest, rev.Number)
	}

	return highest + 1
}

// Find returns the revision with the given hash.
func Find(revisions []Revision, hash string) (Revision, bool) {
	for _, rev := range revisions {
		if rev.Hash == hash {
			return rev, true
		}
	}

	return Revision{}, false
}

// FindByNumber returns the revision with the given number.
func FindByNumber(revisions []Revision, number int64) (Revision, bool) {
	for _, rev := range revisions {
		if rev.Number == number {
			return rev, true
		}
	}

	return Revision{}, false
}
