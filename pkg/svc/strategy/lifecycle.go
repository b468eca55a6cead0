package strategy

import (
	"fmt"
	"slices"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
)

// MessageAborted is the status message of a manually aborted rollout.
const MessageAborted = "rollout aborted"

// initialDeploy brings up the first revision of a rollout. There is nothing to
// fall back to, so failures degrade the rollout without aborting it.
func (p *planner) initialDeploy() {
	replicas := p.desired()

	p.scaleOthers(0, p.cur.Hash)
	p.decision.Replicas[p.cur.Hash] = replicas
	p.route(p.cur.Hash, p.cur.Hash)

	if p.rollout.Spec.Strategy.Type == v1alpha1.StrategyBlueGreen {
		p.status.ActiveRevision = p.cur.Hash
	}

	if message, failed := p.failure(); failed {
		p.degraded(message)

		return
	}

	if p.cur.Replicas >= replicas && p.cur.Available >= replicas {
		p.complete()

		return
	}

	p.progressing("waiting for revision %s: %d of %d replicas available", p.cur.Hash, p.cur.Available, replicas)
}

// userPause freezes every replica count and leaves routing untouched.
func (p *planner) userPause() {
	p.pause(v1alpha1.PauseReasonUser, "paused by user")
}

// abort routes all traffic back to the stable revision and scales everything
// else to zero. An empty message keeps the message of an already degraded rollout.
func (p *planner) abort(message string) {
	switch {
	case message != "":
		p.status.Message = message
	case p.status.Phase != v1alpha1.PhaseDegraded || p.status.Message == "":
		p.status.Message = MessageAborted
	}

	p.status.Phase = v1alpha1.PhaseDegraded
	p.status.Promote = false
	p.status.PromoteFull = false
	p.status.Analysis = nil
	p.status.CanaryWeight = 0
	p.status.PreviewRevision = ""
	p.clearPause()

	p.scaleOthers(0, p.stable.Hash)
	p.decision.Replicas[p.stable.Hash] = p.desired()

	p.route(p.stable.Hash, p.stable.Hash)

	if p.rollout.Spec.Service != "" {
		p.decision.Routes[p.rollout.Spec.Service] = p.stable.Hash
	}

	if p.rollout.Spec.Strategy.Type == v1alpha1.StrategyBlueGreen {
		p.status.ActiveRevision = p.stable.Hash
	}
}

// failure reports whether the current revision is degraded or stopped making
// progress within the deadline. The deadline restarts whenever the observed
// replica counts move.
func (p *planner) failure() (string, bool) {
	if p.cur.Health == v1alpha1.PhaseDegraded {
		return fmt.Sprintf("revision %s degraded: %s", p.cur.Hash, p.cur.Message), true
	}

	if p.status.ProgressMarker != "" && p.status.ProgressMarker != p.progressMarker() {
		return "", false
	}

	if p.status.Phase == v1alpha1.PhaseProgressing && p.status.ProgressingSince != nil {
		deadline := p.rollout.ProgressDeadline()
		if p.obs.Now.Sub(p.status.ProgressingSince.Time) > deadline {
			return fmt.Sprintf("ProgressDeadlineExceeded: revision %s made no progress within %s",
				p.cur.Hash, deadline), true
		}
	}

	return "", false
}

// steadyState keeps the stable revision at full size and winds down the rest.
func (p *planner) steadyState() {
	replicas := p.desired()

	p.status.Abort = false
	p.status.Promote = false
	p.status.PromoteFull = false
	p.status.Analysis = nil
	p.status.CanaryWeight = 0
	p.status.PreviewRevision = ""
	p.clearPause()

	if canary := p.rollout.Spec.Strategy.Canary; canary != nil &&
		p.rollout.Spec.Strategy.Type == v1alpha1.StrategyCanary {
		p.status.CurrentStepIndex = ptrInt32(len(canary.Steps))
	}

	if p.rollout.Spec.Strategy.Type == v1alpha1.StrategyBlueGreen {
		p.status.ActiveRevision = p.stable.Hash
	}

	p.decision.Replicas[p.stable.Hash] = replicas
	p.route(p.stable.Hash, p.stable.Hash)
	p.scaleDownOld()
	p.prune()

	switch {
	case p.stable.Health == v1alpha1.PhaseDegraded:
		p.degraded(fmt.Sprintf("stable revision %s degraded: %s", p.stable.Hash, p.stable.Message))
	case p.stable.Replicas >= replicas && p.stable.Available >= replicas:
		p.healthy()
	default:
		p.progressing("waiting for revision %s: %d of %d replicas available",
			p.stable.Hash, p.stable.Available, replicas)
	}
}

// scaleDownOld scales every revision other than the stable and current ones to
// zero. After a blue-green promotion they keep their replicas until scaleDownAt.
func (p *planner) scaleDownOld() {
	if scaleDownAt := p.status.ScaleDownAt; scaleDownAt != nil {
		if p.obs.Now.Before(scaleDownAt.Time) {
			p.requeue(scaleDownAt.Sub(p.obs.Now))

			return
		}

		p.status.ScaleDownAt = nil
	}

	p.scaleOthers(0, p.stable.Hash, p.cur.Hash)
}

// prune deletes the oldest scaled-down revisions beyond the history limit.
func (p *planner) prune() {
	var candidates []string

	for _, rev := range p.obs.Revisions {
		if rev.Hash == p.stable.Hash || rev.Hash == p.cur.Hash {
			continue
		}

		if rev.Replicas == 0 && p.decision.Replicas[rev.Hash] == 0 {
			candidates = append(candidates, rev.Hash)
		}
	}

	excess := len(candidates) - int(p.rollout.HistoryLimit())
	if excess > 0 {
		p.decision.Prune = slices.Clone(candidates[:excess])
	}
}
