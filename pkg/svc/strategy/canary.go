package strategy

import (
	"fmt"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
)

const fullWeight = 100

// canary walks the canary steps from the current step index. Steps that are
// already satisfied are passed in the same planning pass.
func (p *planner) canary() {
	var steps []v1alpha1.CanaryStep
	if p.rollout.Spec.Strategy.Canary != nil {
		steps = p.rollout.Spec.Strategy.Canary.Steps
	}

	index := min(int(p.status.StepIndex()), len(steps))
	if p.status.PromoteFull {
		index = len(steps)
	}

	p.route(p.stable.Hash, p.cur.Hash)
	p.scaleOthers(0, p.stable.Hash, p.cur.Hash)

	for index < len(steps) {
		if p.status.Promote {
			p.status.Promote = false
		} else {
			done := p.canaryStep(steps, index)
			if p.status.Abort {
				return
			}

			if !done {
				break
			}
		}

		index++

		p.clearPause()
		p.status.Analysis = nil
		p.status.ProgressingSince = nil
	}

	p.status.CurrentStepIndex = ptrInt32(index)

	weight := weightAt(steps, index)
	p.status.CanaryWeight = weight
	p.setCanaryReplicas(weight)

	if index < len(steps) {
		return
	}

	replicas := p.desired()
	if p.cur.Replicas >= replicas && p.cur.Available >= replicas {
		p.complete()

		return
	}

	p.progressing("promoting canary revision %s: %d of %d replicas available", p.cur.Hash, p.cur.Available, replicas)
}

// canaryStep reports whether the step at index is satisfied. When it is not, the
// status explains what the rollout waits for.
func (p *planner) canaryStep(steps []v1alpha1.CanaryStep, index int) bool {
	step := steps[index]

	switch {
	case step.SetWeight != nil:
		weight := weightAt(steps, index)
		wanted := canaryReplicas(p.desired(), weight)

		if p.cur.Available >= wanted {
			return true
		}

		p.progressing("step %d: waiting for %d canary replicas at weight %d%%, %d available",
			index, wanted, weight, p.cur.Available)

		return false
	case step.Pause != nil:
		return p.canaryPause(step.Pause, index)
	case step.Analysis != nil:
		return p.gate(fmt.Sprintf("step-%d", index), step.Analysis)
	default:
		return true
	}
}

func (p *planner) canaryPause(pause *v1alpha1.PauseStep, index int) bool {
	if pause.Duration == nil {
		p.pause(v1alpha1.PauseReasonCanaryStep, fmt.Sprintf("step %d: paused until promoted", index))

		return false
	}

	p.pause(v1alpha1.PauseReasonCanaryStep, "")

	remaining := pause.Duration.Duration - p.pauseElapsed()
	if remaining <= 0 {
		return true
	}

	p.status.Message = fmt.Sprintf("step %d: paused for %s", index, remaining.Round(time.Second))
	p.requeue(remaining)

	return false
}

// setCanaryReplicas sizes the canary for weight. The stable revision only gives
// up replicas that the canary already serves with available pods.
func (p *planner) setCanaryReplicas(weight int32) {
	replicas := p.desired()
	canary := canaryReplicas(replicas, weight)

	p.decision.Replicas[p.cur.Hash] = canary
	p.decision.Replicas[p.stable.Hash] = replicas - min(canary, p.cur.Available)
}

// weightAt returns the weight of the last setWeight step at or before index, or
// the full weight once every step has passed.
func weightAt(steps []v1alpha1.CanaryStep, index int) int32 {
	if index >= len(steps) {
		return fullWeight
	}

	for i := index; i >= 0; i-- {
		if steps[i].SetWeight != nil {
			return *steps[i].SetWeight
		}
	}

	return 0
}

// canaryReplicas returns ceil(replicas * weight / 100).
func canaryReplicas(replicas, weight int32) int32 {
	return (replicas*weight + fullWeight - 1) / fullWeight
}
