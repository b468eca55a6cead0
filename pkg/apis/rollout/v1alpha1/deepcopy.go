package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// DeepCopyInto copies all properties of this object into another object of the same type.
func (in *Rollout) DeepCopyInto(out *Rollout) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy creates a deep copy of Rollout.
func (in *Rollout) DeepCopy() *Rollout {
	if in == nil {
		return nil
	}

	out := new(Rollout)
	in.DeepCopyInto(out)

	return out
}

// DeepCopyObject implements runtime.Object interface.
func (in *Rollout) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}

	return nil
}

// DeepCopyInto copies all properties into another RolloutList.
func (in *RolloutList) DeepCopyInto(out *RolloutList) {
	*out = *in
	out.TypeMeta = in.TypeMeta

	in.ListMeta.DeepCopyInto(&out.ListMeta)

	if in.Items != nil {
		out.Items = make([]Rollout, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy creates a deep copy of RolloutList.
func (in *RolloutList) DeepCopy() *RolloutList {
	if in == nil {
		return nil
	}

	out := new(RolloutList)
	in.DeepCopyInto(out)

	return out
}

// DeepCopyObject implements runtime.Object interface.
func (in *RolloutList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}

	return nil
}

// DeepCopyInto copies all properties from this RolloutSpec into another.
func (in *RolloutSpec) DeepCopyInto(out *RolloutSpec) {
	*out = *in
	out.Replicas = copyInt32(in.Replicas)
	in.Template.DeepCopyInto(&out.Template)
	out.RevisionHistoryLimit = copyInt32(in.RevisionHistoryLimit)
	out.ProgressDeadlineSeconds = copyInt32(in.ProgressDeadlineSeconds)
	in.Strategy.DeepCopyInto(&out.Strategy)
}

// DeepCopyInto copies all properties into another Strategy.
func (in *Strategy) DeepCopyInto(out *Strategy) {
	*out = *in

	if in.BlueGreen != nil {
		out.BlueGreen = new(BlueGreenStrategy)
		in.BlueGreen.DeepCopyInto(out.BlueGreen)
	}

	if in.RollingUpdate != nil {
		out.RollingUpdate = &RollingUpdateStrategy{
			MaxSurge:       copyIntOrString(in.RollingUpdate.MaxSurge),
			MaxUnavailable: copyIntOrString(in.RollingUpdate.MaxUnavailable),
		}
	}

	if in.Canary != nil {
		out.Canary = new(CanaryStrategy)
		in.Canary.DeepCopyInto(out.Canary)
	}
}

// DeepCopyInto copies all properties into another BlueGreenStrategy.
func (in *BlueGreenStrategy) DeepCopyInto(out *BlueGreenStrategy) {
	*out = *in

	if in.AutoPromotionEnabled != nil {
		enabled := *in.AutoPromotionEnabled
		out.AutoPromotionEnabled = &enabled
	}

	out.ScaleDownDelaySeconds = copyInt32(in.ScaleDownDelaySeconds)
	out.PreviewReplicaCount = copyInt32(in.PreviewReplicaCount)

	if in.PrePromotionAnalysis != nil {
		analysis := *in.PrePromotionAnalysis
		out.PrePromotionAnalysis = &analysis
	}
}

// DeepCopyInto copies all properties into another CanaryStrategy.
func (in *CanaryStrategy) DeepCopyInto(out *CanaryStrategy) {
	*out = *in

	if in.Steps != nil {
		out.Steps = make([]CanaryStep, len(in.Steps))
		for i := range in.Steps {
			in.Steps[i].DeepCopyInto(&out.Steps[i])
		}
	}
}

// DeepCopyInto copies all properties into another CanaryStep.
func (in *CanaryStep) DeepCopyInto(out *CanaryStep) {
	*out = *in
	out.SetWeight = copyInt32(in.SetWeight)

	if in.Pause != nil {
		out.Pause = new(PauseStep)
		if in.Pause.Duration != nil {
			duration := *in.Pause.Duration
			out.Pause.Duration = &duration
		}
	}

	if in.Analysis != nil {
		analysis := *in.Analysis
		out.Analysis = &analysis
	}
}

// DeepCopyInto copies all properties into another RolloutStatus.
func (in *RolloutStatus) DeepCopyInto(out *RolloutStatus) {
	*out = *in

	if in.CurrentStepIndex != nil {
		index := *in.CurrentStepIndex
		out.CurrentStepIndex = &index
	}

	out.PauseStartTime = copyTime(in.PauseStartTime)

	if in.Analysis != nil {
		out.Analysis = &AnalysisStatus{
			Gate:          in.Analysis.Gate,
			Successes:     in.Analysis.Successes,
			LastCheckTime: copyTime(in.Analysis.LastCheckTime),
		}
	}

	out.ScaleDownAt = copyTime(in.ScaleDownAt)
	out.ProgressingSince = copyTime(in.ProgressingSince)

	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

func copyInt32(in *int32) *int32 {
	if in == nil {
		return nil
	}

	out := *in

	return &out
}

func copyIntOrString(in *intstr.IntOrString) *intstr.IntOrString {
	if in == nil {
		return nil
	}

	out := *in

	return &out
}

func copyTime(in *metav1.Time) *metav1.Time {
	if in == nil {
		return nil
	}

	return in.DeepCopy()
}
