package strategy

import (
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"k8s.io/utils/ptr"
)

// gate runs the analysis identified by name against the current revision and
// reports whether it passed. A failed check aborts the rollout.
//
// Every interval the revision is checked once: a healthy revision counts as a
// success, a progressing one resets the count, and a degraded one or one whose
// pods restarted more than allowed fails the analysis.
func (p *planner) gate(name string, analysis *v1alpha1.Analysis) bool {
	checks := analysis.SuccessfulChecks
	if checks <= 0 {
		checks = v1alpha1.DefaultAnalysisChecks
	}

	interval := analysis.Interval.Duration
	if interval <= 0 {
		interval = v1alpha1.DefaultAnalysisInterval
	}

	state := p.status.Analysis
	if state == nil || state.Gate != name {
		state = &v1alpha1.AnalysisStatus{Gate: name}
		p.status.Analysis = state
	}

	if state.Successes >= checks {
		return true
	}

	if state.LastCheckTime != nil {
		next := state.LastCheckTime.Add(interval)
		if p.obs.Now.Before(next) {
			p.progressing("analysis %s: %d of %d checks passed", name, state.Successes, checks)
			p.requeue(next.Sub(p.obs.Now))

			return false
		}
	}

	state.LastCheckTime = ptr.To(p.now())

	switch {
	case p.cur.Health == v1alpha1.PhaseDegraded:
		p.failAnalysis(fmt.Sprintf("analysis %s failed: revision %s degraded: %s", name, p.cur.Hash, p.cur.Message))

		return false
	case p.cur.Restarts > analysis.MaxRestarts:
		p.failAnalysis(fmt.Sprintf("analysis %s failed: %d restarts, at most %d allowed",
			name, p.cur.Restarts, analysis.MaxRestarts))

		return false
	case p.cur.Health == v1alpha1.PhaseHealthy:
		state.Successes++
	default:
		state.Successes = 0
	}

	if state.Successes >= checks {
		return true
	}

	p.progressing("analysis %s: %d of %d checks passed", name, state.Successes, checks)
	p.requeue(interval)

	return false
}

func (p *planner) failAnalysis(message string) {
	p.status.Abort = true
	p.abort(message)
}
