package strategy

import (
	"fmt"
	"slices"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

// ConditionHealthy is the status condition mirroring the Healthy phase.
const ConditionHealthy = "Healthy"

// Plan decides the next step of a rollout.
//
// Rules apply in order: initial deploy, user pause, steady state, abort and
// failure detection, then the strategy itself.
func Plan(obs Observation) (Decision, error) {
	p, err := newPlanner(obs)
	if err != nil {
		return Decision{}, err
	}

	switch {
	case p.stable == nil:
		p.initialDeploy()
	case p.rollout.Spec.Paused:
		p.userPause()
	case p.cur.Hash == p.stable.Hash:
		p.steadyState()
	default:
		p.progress()
	}

	return p.finish(), nil
}

// progress moves an in-flight rollout forward unless it is aborted or failing.
func (p *planner) progress() {
	if p.status.Abort {
		p.abort("")

		return
	}

	if message, failed := p.failure(); failed {
		p.status.Abort = true
		p.abort(message)

		return
	}

	switch p.rollout.Spec.Strategy.Type {
	case v1alpha1.StrategyBlueGreen:
		p.blueGreen()
	case v1alpha1.StrategyCanary:
		p.canary()
	default:
		p.rollingUpdate()
	}
}

type planner struct {
	obs      Observation
	rollout  *v1alpha1.Rollout
	previous v1alpha1.RolloutStatus
	status   v1alpha1.RolloutStatus
	cur      *RevisionState
	stable   *RevisionState
	decision Decision
}

func newPlanner(obs Observation) (*planner, error) {
	p := &planner{
		obs:     obs,
		rollout: obs.Rollout,
		decision: Decision{
			Replicas: make(map[string]int32, len(obs.Revisions)),
			Routes:   make(map[string]string),
		},
	}

	for i := range obs.Revisions {
		rev := &obs.Revisions[i]
		p.decision.Replicas[rev.Hash] = rev.Replicas

		if rev.Hash == obs.CurrentHash {
			p.cur = rev
		}
	}

	if p.cur == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCurrentRevision, obs.CurrentHash)
	}

	p.previous = obs.Rollout.Status
	p.status = obs.Rollout.DeepCopy().Status

	if p.status.CurrentRevision != obs.CurrentHash {
		p.startRevision()
	}

	if !p.rollout.Spec.Paused && p.status.PauseReason == v1alpha1.PauseReasonUser {
		p.clearPause()
	}

	p.stable = p.revision(p.status.StableRevision)

	return p, nil
}

// startRevision resets per-revision progress when the template changed.
func (p *planner) startRevision() {
	p.status.CurrentRevision = p.obs.CurrentHash
	p.status.CurrentStepIndex = nil
	p.status.Abort = false
	p.status.Promote = false
	p.status.PromoteFull = false
	p.status.Analysis = nil
	p.status.PreviewRevision = ""
	p.status.ProgressingSince = nil
	p.status.ProgressMarker = ""

	if p.status.PauseReason != v1alpha1.PauseReasonUser {
		p.clearPause()
	}
}

func (p *planner) revision(hash string) *RevisionState {
	if hash == "" {
		return nil
	}

	for i := range p.obs.Revisions {
		if p.obs.Revisions[i].Hash == hash {
			return &p.obs.Revisions[i]
		}
	}

	return nil
}

// progressMarker fingerprints the observed replica counts of the current
// revision and the total replicas of every other revision.
func (p *planner) progressMarker() string {
	var others int32

	for _, rev := range p.obs.Revisions {
		if rev.Hash != p.cur.Hash {
			others += rev.Replicas
		}
	}

	return fmt.Sprintf("%s:%d/%d/%d:%d", p.cur.Hash, p.cur.Replicas, p.cur.Ready, p.cur.Available, others)
}

func (p *planner) desired() int32 {
	return p.rollout.DesiredReplicas()
}

func (p *planner) now() metav1.Time {
	return metav1.NewTime(p.obs.Now)
}

// --- status helpers ---

func (p *planner) progressing(format string, args ...any) {
	p.status.Phase = v1alpha1.PhaseProgressing
	p.status.Message = fmt.Sprintf(format, args...)
}

func (p *planner) degraded(message string) {
	p.status.Phase = v1alpha1.PhaseDegraded
	p.status.Message = message
}

func (p *planner) healthy() {
	p.status.Phase = v1alpha1.PhaseHealthy
	p.status.Message = ""
}

// pause marks the rollout paused for reason, starting the pause clock if it is
// not running for the same reason yet.
func (p *planner) pause(reason v1alpha1.PauseReason, message string) {
	if p.status.PauseReason != reason || p.status.PauseStartTime == nil {
		p.status.PauseReason = reason
		p.status.PauseStartTime = ptr.To(p.now())
	}

	p.status.Phase = v1alpha1.PhasePaused
	p.status.Message = message
}

// pauseElapsed returns how long the current pause has been running.
func (p *planner) pauseElapsed() time.Duration {
	if p.status.PauseStartTime == nil {
		return 0
	}

	return p.obs.Now.Sub(p.status.PauseStartTime.Time)
}

func (p *planner) clearPause() {
	p.status.PauseReason = v1alpha1.PauseReasonNone
	p.status.PauseStartTime = nil
}

func (p *planner) requeue(after time.Duration) {
	if after <= 0 {
		return
	}

	if p.decision.RequeueAfter == 0 || after < p.decision.RequeueAfter {
		p.decision.RequeueAfter = after
	}
}

// route points the strategy's Services at the stable and current revisions.
func (p *planner) route(stableHash, currentHash string) {
	strategy := p.rollout.Spec.Strategy

	switch strategy.Type {
	case v1alpha1.StrategyBlueGreen:
		if strategy.BlueGreen != nil {
			p.decision.Routes[strategy.BlueGreen.ActiveService] = stableHash

			if strategy.BlueGreen.PreviewService != "" {
				p.decision.Routes[strategy.BlueGreen.PreviewService] = currentHash
			}
		}
	case v1alpha1.StrategyCanary:
		if strategy.Canary != nil {
			if strategy.Canary.StableService != "" {
				p.decision.Routes[strategy.Canary.StableService] = stableHash
			}

			if strategy.Canary.CanaryService != "" {
				p.decision.Routes[strategy.Canary.CanaryService] = currentHash
			}
		}
	}

	if p.rollout.Spec.Service != "" {
		p.decision.Routes[p.rollout.Spec.Service] = AllRevisions
	}
}

// scaleOthers sets every revision other than keep to replicas.
func (p *planner) scaleOthers(replicas int32, keep ...string) {
	for _, rev := range p.obs.Revisions {
		if !slices.Contains(keep, rev.Hash) {
			p.decision.Replicas[rev.Hash] = replicas
		}
	}
}

// complete makes the current revision stable.
func (p *planner) complete() {
	p.status.StableRevision = p.cur.Hash
	p.status.Promote = false
	p.status.PromoteFull = false
	p.status.Abort = false
	p.status.Analysis = nil
	p.status.CanaryWeight = 0
	p.status.PreviewRevision = ""
	p.clearPause()

	if p.rollout.Spec.Strategy.Type == v1alpha1.StrategyBlueGreen {
		p.status.ActiveRevision = p.cur.Hash
	}

	if canary := p.rollout.Spec.Strategy.Canary; canary != nil &&
		p.rollout.Spec.Strategy.Type == v1alpha1.StrategyCanary {
		p.status.CurrentStepIndex = ptrInt32(len(canary.Steps))
	}

	p.route(p.cur.Hash, p.cur.Hash)
	p.healthy()
}

// finish fills derived status fields and the journal events.
func (p *planner) finish() Decision {
	status := &p.status
	status.ObservedGeneration = p.rollout.Generation

	status.Replicas, status.ReadyReplicas, status.AvailableReplicas = 0, 0, 0
	for _, rev := range p.obs.Revisions {
		status.Replicas += rev.Replicas
		status.ReadyReplicas += rev.Ready
		status.AvailableReplicas += rev.Available
	}

	status.UpdatedReplicas = p.cur.Replicas

	marker := p.progressMarker()

	switch {
	case status.Phase != v1alpha1.PhaseProgressing:
		status.ProgressingSince = nil
		status.ProgressMarker = ""
	case status.ProgressingSince == nil || status.ProgressMarker != marker:
		status.ProgressingSince = ptr.To(p.now())
		status.ProgressMarker = marker
	}

	if status.Phase == v1alpha1.PhaseProgressing && p.decision.RequeueAfter == 0 {
		p.decision.RequeueAfter = ProgressRequeueInterval
	}

	conditionStatus := metav1.ConditionFalse
	if status.Phase == v1alpha1.PhaseHealthy {
		conditionStatus = metav1.ConditionTrue
	}

	meta.SetStatusCondition(&status.Conditions, metav1.Condition{
		Type:               ConditionHealthy,
		Status:             conditionStatus,
		ObservedGeneration: p.rollout.Generation,
		LastTransitionTime: p.now(),
		Reason:             string(status.Phase),
		Message:            status.Message,
	})

	p.decision.Status = *status
	p.decision.Events = p.events()

	return p.decision
}

func (p *planner) events() []Event {
	var events []Event

	add := func(warning bool, reason, message string) {
		events = append(events, Event{
			Warning:  warning,
			Reason:   reason,
			Message:  message,
			Revision: p.status.CurrentRevision,
			Step:     p.status.StepIndex(),
		})
	}

	if p.previous.CurrentRevision != p.status.CurrentRevision {
		add(false, "NewRevision", "revision "+p.status.CurrentRevision+" created")
	}

	if p.previous.StepIndex() != p.status.StepIndex() && p.status.CurrentStepIndex != nil {
		add(false, "StepAdvanced", fmt.Sprintf("canary step %d reached", p.status.StepIndex()))
	}

	if p.previous.StableRevision != p.status.StableRevision {
		add(false, "Promoted", "revision "+p.status.StableRevision+" is stable")
	}

	if p.previous.Phase != p.status.Phase {
		add(p.status.Phase == v1alpha1.PhaseDegraded, string(p.status.Phase), p.status.Message)
	}

	return events
}

func ptrInt32(value int) *int32 {
	return ptr.To(int32(value)) //nolint:gosec // step indexes are small
}
