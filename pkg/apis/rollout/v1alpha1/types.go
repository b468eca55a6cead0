package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	// Group is the API group for rollctl resources.
	Group = "rollctl.io"
	// Version is the API version for rollctl resources.
	Version = "v1alpha1"
	// Kind is the kind for rollouts.
	Kind = "Rollout"
	// ListKind is the list kind for rollouts.
	ListKind = "RolloutList"
	// Resource is the plural resource name for rollouts.
	Resource = "rollouts"
	// APIVersion is the full API version for rollctl resources.
	APIVersion = Group + "/" + Version
)

// GroupVersionResource identifies the Rollout resource for dynamic clients.
//
//nolint:gochecknoglobals // immutable API coordinates
var GroupVersionResource = schema.GroupVersionResource{
	Group:    Group,
	Version:  Version,
	Resource: Resource,
}

// GroupVersionKind identifies the Rollout kind.
//
//nolint:gochecknoglobals // immutable API coordinates
var GroupVersionKind = schema.GroupVersionKind{
	Group:   Group,
	Version: Version,
	Kind:    Kind,
}

// --- Core Types ---

// Rollout declares a workload together with the strategy used to move it from one
// pod template revision to the next.
type Rollout struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   RolloutSpec   `json:"spec"`
	Status RolloutStatus `json:"status,omitzero"`
}

// RolloutSpec defines the desired state of a Rollout.
type RolloutSpec struct {
	Replicas                *int32                 `json:"replicas,omitempty"`
	Template                corev1.PodTemplateSpec `json:"template"`
	MinReadySeconds         int32                  `json:"minReadySeconds,omitempty"`
	RevisionHistoryLimit    *int32                 `json:"revisionHistoryLimit,omitempty"`
	ProgressDeadlineSeconds *int32                 `json:"progressDeadlineSeconds,omitempty"`
	// Paused freezes replica counts until cleared.
	Paused bool `json:"paused,omitempty"`
	// Service optionally names a Service that selects every revision of the rollout.
	Service  string   `json:"service,omitempty"`
	Strategy Strategy `json:"strategy,omitzero"`
}

// Strategy selects and configures how a new revision replaces the stable one.
type Strategy struct {
	Type          StrategyType           `json:"type,omitempty"`
	BlueGreen     *BlueGreenStrategy     `json:"blueGreen,omitempty"`
	RollingUpdate *RollingUpdateStrategy `json:"rollingUpdate,omitempty"`
	Canary        *CanaryStrategy        `json:"canary,omitempty"`
}

// BlueGreenStrategy runs the new revision next to the stable one and switches the
// active Service over in one step.
type BlueGreenStrategy struct {
	ActiveService         string    `json:"activeService"`
	PreviewService        string    `json:"previewService,omitempty"`
	AutoPromotionEnabled  *bool     `json:"autoPromotionEnabled,omitempty"`
	AutoPromotionSeconds  int32     `json:"autoPromotionSeconds,omitempty"`
	ScaleDownDelaySeconds *int32    `json:"scaleDownDelaySeconds,omitempty"`
	PreviewReplicaCount   *int32    `json:"previewReplicaCount,omitempty"`
	PrePromotionAnalysis  *Analysis `json:"prePromotionAnalysis,omitempty"`
}

// RollingUpdateStrategy replaces pods incrementally within surge and availability bounds.
type RollingUpdateStrategy struct {
	MaxSurge       *intstr.IntOrString `json:"maxSurge,omitempty"`
	MaxUnavailable *intstr.IntOrString `json:"maxUnavailable,omitempty"`
}

// CanaryStrategy shifts an increasing share of replicas to the new revision.
type CanaryStrategy struct {
	StableService string       `json:"stableService,omitempty"`
	CanaryService string       `json:"canaryService,omitempty"`
	Steps         []CanaryStep `json:"steps,omitempty"`
}

// CanaryStep is one step of a canary rollout. Exactly one field must be set.
type CanaryStep struct {
	SetWeight *int32     `json:"setWeight,omitempty"`
	Pause     *PauseStep `json:"pause,omitempty"`
	Analysis  *Analysis  `json:"analysis,omitempty"`
}

// PauseStep halts a canary. Without a duration it waits for a promotion.
type PauseStep struct {
	Duration *metav1.Duration `json:"duration,omitempty"`
}

// Analysis gates progress on consecutive healthy checks of the new revision.
type Analysis struct {
	SuccessfulChecks int32           `json:"successfulChecks,omitempty"`
	Interval         metav1.Duration `json:"interval,omitzero"`
	MaxRestarts      int32           `json:"maxRestarts,omitempty"`
}

// RolloutStatus is the observed state of a Rollout.
type RolloutStatus struct {
	ObservedGeneration int64        `json:"observedGeneration,omitempty"`
	Phase              Phase        `json:"phase,omitempty"`
	Message            string       `json:"message,omitempty"`
	CurrentRevision    string       `json:"currentRevision,omitempty"`
	StableRevision     string       `json:"stableRevision,omitempty"`
	CurrentStepIndex   *int32       `json:"currentStepIndex,omitempty"`
	PauseStartTime     *metav1.Time `json:"pauseStartTime,omitempty"`
	PauseReason        PauseReason  `json:"pauseReason,omitempty"`

	// Control fields are written by the CLI and consumed by the controller.
	Promote     bool `json:"promote,omitempty"`
	PromoteFull bool `json:"promoteFull,omitempty"`
	Abort       bool `json:"abort,omitempty"`

	Analysis *AnalysisStatus `json:"analysis,omitempty"`

	Replicas          int32 `json:"replicas,omitempty"`
	UpdatedReplicas   int32 `json:"updatedReplicas,omitempty"`
	ReadyReplicas     int32 `json:"readyReplicas,omitempty"`
	AvailableReplicas int32 `json:"availableReplicas,omitempty"`
	CanaryWeight      int32 `json:"canaryWeight,omitempty"`

	ActiveRevision   string       `json:"activeRevision,omitempty"`
	PreviewRevision  string       `json:"previewRevision,omitempty"`
	ScaleDownAt      *metav1.Time `json:"scaleDownAt,omitempty"`
	ProgressingSince *metav1.Time `json:"progressingSince,omitempty"`

	// ProgressMarker fingerprints the replica counts last seen while
	// progressing. A change restarts the progress deadline.
	ProgressMarker string `json:"progressMarker,omitempty"`

	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// AnalysisStatus tracks the analysis currently gating a rollout.
type AnalysisStatus struct {
	// Gate identifies what the analysis belongs to, e.g. "step-2" or "pre-promotion".
	Gate          string       `json:"gate"`
	Successes     int32        `json:"successes,omitempty"`
	LastCheckTime *metav1.Time `json:"lastCheckTime,omitempty"`
}

// RolloutList is a list of Rollouts.
type RolloutList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`

	Items []Rollout `json:"items"`
}
