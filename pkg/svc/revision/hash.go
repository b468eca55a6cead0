package revision

import (
	"fmt"
	"hash/fnv"
	"maps"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/dump"
	"k8s.io/apimachinery/pkg/util/rand"
)

const (
	// LabelRollout carries the owning rollout's name on revisions, pods and selectors.
	LabelRollout = "rollctl.io/rollout"
	// LabelRevision carries the pod template hash of a revision.
	LabelRevision = "rollctl.io/revision"
	// AnnotationRevisionNumber numbers the revisions of a rollout monotonically.
	AnnotationRevisionNumber = "rollctl.io/revision-number"
	// AnnotationTemplate holds the pod template as the rollout submitted it,
	// before the API server filled in defaults.
	AnnotationTemplate = "rollctl.io/template"
)

// Hash returns a short DNS-safe hash of the template with rollctl labels removed.
func Hash(template corev1.PodTemplateSpec) string {
	stripped := StripLabels(template)

	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(dump.ForHash(stripped)))

	return rand.SafeEncodeString(fmt.Sprint(hasher.Sum32()))
}

// Name returns the Deployment name for a revision.
func Name(rollout, hash string) string {
	return rollout + "-" + hash
}

// StripLabels returns a copy of the template without rollctl's revision labels.
func StripLabels(template corev1.PodTemplateSpec) corev1.PodTemplateSpec {
	out := *template.DeepCopy()
	if len(out.Labels) == 0 {
		return out
	}

	labels := maps.Clone(out.Labels)
	delete(labels, LabelRollout)
	delete(labels, LabelRevision)

	if len(labels) == 0 {
		labels = nil
	}

	out.Labels = labels

	return out
}
