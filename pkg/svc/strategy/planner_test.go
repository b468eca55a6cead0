package strategy_test

import (
	"testing"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/svc/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

//nolint:gochecknoglobals // fixed clock shared by planner tests
var now = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newRollout(replicas int32, strategySpec v1alpha1.Strategy) *v1alpha1.Rollout {
	rollout := v1alpha1.NewRollout("shop", "web", "web:2", replicas)
	rollout.Spec.Strategy = strategySpec
	v1alpha1.SetDefaults(rollout)

	return rollout
}

func rev(hash string, number int64, replicas, available int32) strategy.RevisionState {
	health := v1alpha1.PhaseProgressing
	if available >= replicas {
		health = v1alpha1.PhaseHealthy
	}

	return strategy.RevisionState{
		Hash:      hash,
		Number:    number,
		Replicas:  replicas,
		Ready:     available,
		Available: available,
		Health:    health,
	}
}

func plan(t *testing.T, rollout *v1alpha1.Rollout, current string, at time.Time, revisions ...strategy.RevisionState) strategy.Decision {
	t.Helper()

	decision, err := strategy.Plan(strategy.Observation{
		Rollout:     rollout,
		CurrentHash: current,
		Revisions:   revisions,
		Now:         at,
	})
	require.NoError(t, err)

	return decision
}

func eventReasons(events []strategy.Event) []string {
	reasons := make([]string, 0, len(events))
	for _, event := range events {
		reasons = append(reasons, event.Reason)
	}

	return reasons
}

func TestPlan_MissingCurrentRevision(t *testing.T) {
	t.Parallel()

	_, err := strategy.Plan(strategy.Observation{
		Rollout:     newRollout(3, v1alpha1.Strategy{}),
		CurrentHash: "b",
		Revisions:   []strategy.RevisionState{rev("a", 1, 3, 3)},
		Now:         now,
	})

	require.ErrorIs(t, err, strategy.ErrNoCurrentRevision)
}

func TestPlan_InitialDeploy(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{
		BlueGreen: &v1alpha1.BlueGreenStrategy{ActiveService: "web-active", PreviewService: "web-preview"},
	})

	decision := plan(t, rollout, "a", now, rev("a", 1, 0, 0))

	assert.Equal(t, map[string]int32{"a": 3}, decision.Replicas)
	assert.Equal(t, map[string]string{"web-active": "a", "web-preview": "a"}, decision.Routes)
	assert.Equal(t, v1alpha1.PhaseProgressing, decision.Status.Phase)
	assert.Empty(t, decision.Status.StableRevision)
	assert.Equal(t, strategy.ProgressRequeueInterval, decision.RequeueAfter)
	require.NotNil(t, decision.Status.ProgressingSince)
	assert.Equal(t, now, decision.Status.ProgressingSince.Time)
	assert.Equal(t, []string{"NewRevision", "Progressing"}, eventReasons(decision.Events))

	rollout.Status = decision.Status
	decision = plan(t, rollout, "a", now.Add(time.Minute), rev("a", 1, 3, 3))

	assert.Equal(t, v1alpha1.PhaseHealthy, decision.Status.Phase)
	assert.Equal(t, "a", decision.Status.StableRevision)
	assert.Equal(t, "a", decision.Status.ActiveRevision)
	assert.Nil(t, decision.Status.ProgressingSince)
	assert.Equal(t, []string{"Promoted", "Healthy"}, eventReasons(decision.Events))
	assert.True(t, healthyCondition(decision.Status.Conditions))
}

func healthyCondition(conditions []metav1.Condition) bool {
	for _, condition := range conditions {
		if condition.Type == strategy.ConditionHealthy {
			return condition.Status == metav1.ConditionTrue
		}
	}

	return false
}

func TestPlan_InitialDeployDegradedWithoutStable(t *testing.T) {
	t.Parallel()

	current := rev("a", 1, 2, 0)
	current.Health = v1alpha1.PhaseDegraded
	current.Message = "pod web-a-1: container web is in ImagePullBackOff"

	decision := plan(t, newRollout(2, v1alpha1.Strategy{}), "a", now, current)

	assert.Equal(t, v1alpha1.PhaseDegraded, decision.Status.Phase)
	assert.Contains(t, decision.Status.Message, "ImagePullBackOff")
	assert.False(t, decision.Status.Abort)
	assert.Equal(t, int32(2), decision.Replicas["a"])
}

func TestPlan_SteadyStateScalesDownAndPrunes(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{})
	rollout.Spec.RevisionHistoryLimit = ptr.To[int32](1)
	rollout.Status = v1alpha1.RolloutStatus{StableRevision: "d", CurrentRevision: "d", Phase: v1alpha1.PhaseHealthy}

	decision := plan(t, rollout, "d", now,
		rev("a", 1, 0, 0),
		rev("b", 2, 0, 0),
		rev("c", 3, 2, 2),
		rev("d", 4, 3, 3),
	)

	assert.Equal(t, map[string]int32{"a": 0, "b": 0, "c": 0, "d": 3}, decision.Replicas)
	assert.Equal(t, []string{"a"}, decision.Prune)
	assert.Equal(t, v1alpha1.PhaseHealthy, decision.Status.Phase)
	assert.Empty(t, decision.Events)
	assert.Zero(t, decision.RequeueAfter)
}

func TestPlan_SteadyStateScalesUp(t *testing.T) {
	t.Parallel()

	rollout := newRollout(5, v1alpha1.Strategy{})
	rollout.Status = v1alpha1.RolloutStatus{StableRevision: "a", CurrentRevision: "a", Phase: v1alpha1.PhaseHealthy}

	decision := plan(t, rollout, "a", now, rev("a", 1, 3, 3))

	assert.Equal(t, int32(5), decision.Replicas["a"])
	assert.Equal(t, v1alpha1.PhaseProgressing, decision.Status.Phase)
}

func TestPlan_UserPauseFreezesReplicas(t *testing.T) {
	t.Parallel()

	rollout := newRollout(4, v1alpha1.Strategy{
		Canary: &v1alpha1.CanaryStrategy{
			StableService: "web-stable",
			CanaryService: "web-canary",
			Steps:         []v1alpha1.CanaryStep{{SetWeight: ptr.To[int32](50)}},
		},
	})
	rollout.Spec.Paused = true
	rollout.Status = v1alpha1.RolloutStatus{
		StableRevision:   "a",
		CurrentRevision:  "b",
		CurrentStepIndex: ptr.To[int32](0),
		Phase:            v1alpha1.PhaseProgressing,
	}

	decision := plan(t, rollout, "b", now, rev("a", 1, 3, 3), rev("b", 2, 1, 1))

	assert.Equal(t, map[string]int32{"a": 3, "b": 1}, decision.Replicas)
	assert.Empty(t, decision.Routes)
	assert.Equal(t, v1alpha1.PhasePaused, decision.Status.Phase)
	assert.Equal(t, v1alpha1.PauseReasonUser, decision.Status.PauseReason)
	require.NotNil(t, decision.Status.PauseStartTime)
	assert.Equal(t, now, decision.Status.PauseStartTime.Time)

	rollout.Status = decision.Status
	rollout.Spec.Paused = false

	decision = plan(t, rollout, "b", now.Add(time.Hour), rev("a", 1, 3, 3), rev("b", 2, 1, 1))

	assert.Equal(t, v1alpha1.PauseReasonNone, decision.Status.PauseReason)
	assert.Nil(t, decision.Status.PauseStartTime)
	assert.Equal(t, int32(2), decision.Replicas["b"])
}

func TestPlan_AbortRoutesEverythingToStable(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{
		Canary: &v1alpha1.CanaryStrategy{
			StableService: "web-stable",
			CanaryService: "web-canary",
			Steps:         []v1alpha1.CanaryStep{{SetWeight: ptr.To[int32](30)}, {Pause: &v1alpha1.PauseStep{}}},
		},
	})
	rollout.Spec.Service = "web"
	rollout.Status = v1alpha1.RolloutStatus{
		StableRevision:   "a",
		CurrentRevision:  "b",
		CurrentStepIndex: ptr.To[int32](1),
		Phase:            v1alpha1.PhasePaused,
		PauseReason:      v1alpha1.PauseReasonCanaryStep,
		PauseStartTime:   ptr.To(metav1.NewTime(now.Add(-time.Minute))),
		Abort:            true,
	}

	decision := plan(t, rollout, "b", now, rev("a", 1, 2, 2), rev("b", 2, 1, 1))

	assert.Equal(t, map[string]int32{"a": 3, "b": 0}, decision.Replicas)
	assert.Equal(t, map[string]string{"web-stable": "a", "web-canary": "a", "web": "a"}, decision.Routes)
	assert.Equal(t, v1alpha1.PhaseDegraded, decision.Status.Phase)
	assert.Equal(t, strategy.MessageAborted, decision.Status.Message)
	assert.True(t, decision.Status.Abort)
	assert.Equal(t, v1alpha1.PauseReasonNone, decision.Status.PauseReason)
	assert.Zero(t, decision.Status.CanaryWeight)

	require.NotEmpty(t, decision.Events)
	assert.True(t, decision.Events[len(decision.Events)-1].Warning)
}

func TestPlan_NewRevisionClearsAbort(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{})
	rollout.Status = v1alpha1.RolloutStatus{
		StableRevision:  "a",
		CurrentRevision: "b",
		Phase:           v1alpha1.PhaseDegraded,
		Message:         strategy.MessageAborted,
		Abort:           true,
	}

	decision := plan(t, rollout, "c", now, rev("a", 1, 3, 3), rev("b", 2, 0, 0), rev("c", 3, 0, 0))

	assert.False(t, decision.Status.Abort)
	assert.Equal(t, "c", decision.Status.CurrentRevision)
	assert.Equal(t, v1alpha1.PhaseProgressing, decision.Status.Phase)
	assert.Positive(t, decision.Replicas["c"])
}

func TestPlan_DegradedRevisionAutoAborts(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{})
	rollout.Status = v1alpha1.RolloutStatus{
		StableRevision:  "a",
		CurrentRevision: "b",
		Phase:           v1alpha1.PhaseProgressing,
	}

	current := rev("b", 2, 1, 0)
	current.Health = v1alpha1.PhaseDegraded
	current.Message = "pod web-b-1: container web is in CrashLoopBackOff"

	decision := plan(t, rollout, "b", now, rev("a", 1, 3, 3), current)

	assert.True(t, decision.Status.Abort)
	assert.Equal(t, v1alpha1.PhaseDegraded, decision.Status.Phase)
	assert.Contains(t, decision.Status.Message, "CrashLoopBackOff")
	assert.Equal(t, map[string]int32{"a": 3, "b": 0}, decision.Replicas)

	rollout.Status = decision.Status
	decision = plan(t, rollout, "b", now.Add(time.Minute), rev("a", 1, 3, 3), rev("b", 2, 0, 0))

	assert.Contains(t, decision.Status.Message, "CrashLoopBackOff")
}

func TestPlan_ProgressDeadlineAutoAborts(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{})
	rollout.Status = v1alpha1.RolloutStatus{
		StableRevision:   "a",
		CurrentRevision:  "b",
		Phase:            v1alpha1.PhaseProgressing,
		ProgressingSince: ptr.To(metav1.NewTime(now.Add(-11 * time.Minute))),
	}

	decision := plan(t, rollout, "b", now, rev("a", 1, 3, 3), rev("b", 2, 1, 0))

	assert.True(t, decision.Status.Abort)
	assert.Equal(t, v1alpha1.PhaseDegraded, decision.Status.Phase)
	assert.Contains(t, decision.Status.Message, "ProgressDeadlineExceeded")
	assert.Nil(t, decision.Status.ProgressingSince)
}

func TestPlan_ReplicaCounters(t *testing.T) {
	t.Parallel()

	rollout := newRollout(3, v1alpha1.Strategy{})
	rollout.Generation = 7
	rollout.Status = v1alpha1.RolloutStatus{StableRevision: "a", CurrentRevision: "b"}

	decision := plan(t, rollout, "b", now, rev("a", 1, 3, 3), rev("b", 2, 1, 0))

	assert.Equal(t, int64(7), decision.Status.ObservedGeneration)
	assert.Equal(t, int32(4), decision.Status.Replicas)
	assert.Equal(t, int32(1), decision.Status.UpdatedReplicas)
	assert.Equal(t, int32(3), decision.Status.AvailableReplicas)
}
