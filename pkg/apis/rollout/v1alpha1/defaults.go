package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

const (
	// DefaultReplicas is the replica count used when spec.replicas is unset.
	DefaultReplicas int32 = 1
	// DefaultRevisionHistoryLimit is the number of scaled-down revisions kept for undo.
	DefaultRevisionHistoryLimit int32 = 3
	// DefaultProgressDeadlineSeconds is the time a revision gets to make progress.
	DefaultProgressDeadlineSeconds int32 = 600
	// DefaultScaleDownDelaySeconds is how long a blue-green revision keeps running after promotion.
	DefaultScaleDownDelaySeconds int32 = 30
	// DefaultAnalysisChecks is the number of consecutive healthy checks an analysis needs.
	DefaultAnalysisChecks int32 = 3
	// DefaultAnalysisInterval is the time between analysis checks.
	DefaultAnalysisInterval = 10 * time.Second
	// DefaultMaxSurge is the default rolling update surge.
	DefaultMaxSurge = "25%"
	// DefaultMaxUnavailable is the default rolling update unavailability.
	DefaultMaxUnavailable = "25%"
)

// SetDefaults fills unset optional fields of a Rollout in place.
func SetDefaults(rollout *Rollout) {
	if rollout.APIVersion == "" {
		rollout.APIVersion = APIVersion
	}

	if rollout.Kind == "" {
		rollout.Kind = Kind
	}

	spec := &rollout.Spec

	if spec.Replicas == nil {
		spec.Replicas = ptr.To(DefaultReplicas)
	}

	if spec.RevisionHistoryLimit == nil {
		spec.RevisionHistoryLimit = ptr.To(DefaultRevisionHistoryLimit)
	}

	if spec.ProgressDeadlineSeconds == nil {
		spec.ProgressDeadlineSeconds = ptr.To(DefaultProgressDeadlineSeconds)
	}

	if spec.Strategy.Type == "" {
		spec.Strategy.Type = inferStrategyType(spec.Strategy)
	}

	switch spec.Strategy.Type {
	case StrategyBlueGreen:
		setBlueGreenDefaults(spec)
	case StrategyRollingUpdate:
		setRollingUpdateDefaults(spec)
	case StrategyCanary:
		setCanaryDefaults(spec)
	}
}

// inferStrategyType picks the strategy from whichever option block is present.
func inferStrategyType(strategy Strategy) StrategyType {
	switch {
	case strategy.BlueGreen != nil:
		return StrategyBlueGreen
	case strategy.Canary != nil:
		return StrategyCanary
	default:
		return StrategyRollingUpdate
	}
}

func setBlueGreenDefaults(spec *RolloutSpec) {
	if spec.Strategy.BlueGreen == nil {
		spec.Strategy.BlueGreen = &BlueGreenStrategy{}
	}

	blueGreen := spec.Strategy.BlueGreen

	if blueGreen.AutoPromotionEnabled == nil {
		blueGreen.AutoPromotionEnabled = ptr.To(true)
	}

	if blueGreen.ScaleDownDelaySeconds == nil {
		blueGreen.ScaleDownDelaySeconds = ptr.To(DefaultScaleDownDelaySeconds)
	}

	if blueGreen.PrePromotionAnalysis != nil {
		setAnalysisDefaults(blueGreen.PrePromotionAnalysis)
	}
}

func setRollingUpdateDefaults(spec *RolloutSpec) {
	if spec.Strategy.RollingUpdate == nil {
		spec.Strategy.RollingUpdate = &RollingUpdateStrategy{}
	}

	rolling := spec.Strategy.RollingUpdate

	if rolling.MaxSurge == nil {
		rolling.MaxSurge = ptr.To(intstr.FromString(DefaultMaxSurge))
	}

	if rolling.MaxUnavailable == nil {
		rolling.MaxUnavailable = ptr.To(intstr.FromString(DefaultMaxUnavailable))
	}
}

func setCanaryDefaults(spec *RolloutSpec) {
	if spec.Strategy.Canary == nil {
		spec.Strategy.Canary = &CanaryStrategy{}
	}

	for i := range spec.Strategy.Canary.Steps {
		if spec.Strategy.Canary.Steps[i].Analysis != nil {
			setAnalysisDefaults(spec.Strategy.Canary.Steps[i].Analysis)
		}
	}
}

func setAnalysisDefaults(analysis *Analysis) {
	if analysis.SuccessfulChecks == 0 {
		analysis.SuccessfulChecks = DefaultAnalysisChecks
	}

	if analysis.Interval.Duration == 0 {
		analysis.Interval = metav1.Duration{Duration: DefaultAnalysisInterval}
	}
}

// DesiredReplicas returns spec.replicas, falling back to DefaultReplicas.
func (r *Rollout) DesiredReplicas() int32 {
	if r.Spec.Replicas == nil {
		return DefaultReplicas
	}

	return *r.Spec.Replicas
}

// ProgressDeadline returns the progress deadline as a duration.
func (r *Rollout) ProgressDeadline() time.Duration {
	seconds := DefaultProgressDeadlineSeconds
	if r.Spec.ProgressDeadlineSeconds != nil {
		seconds = *r.Spec.ProgressDeadlineSeconds
	}

	return time.Duration(seconds) * time.Second
}

// HistoryLimit returns the number of old revisions to keep.
func (r *Rollout) HistoryLimit() int32 {
	if r.Spec.RevisionHistoryLimit == nil {
		return DefaultRevisionHistoryLimit
	}

	return *r.Spec.RevisionHistoryLimit
}

// StepIndex returns the current canary step index, 0 when unset.
func (s *RolloutStatus) StepIndex() int32 {
	if s.CurrentStepIndex == nil {
		return 0
	}

	return *s.CurrentStepIndex
}
