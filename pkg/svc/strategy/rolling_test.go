package strategy_test

import (
	"testing"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/svc/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

func rollingRollout(replicas int32, surge, unavailable intstr.IntOrString) *v1alpha1.Rollout {
	rollout := newRollout(replicas, v1alpha1.Strategy{
		RollingUpdate: &v1alpha1.RollingUpdateStrategy{
			MaxSurge:       ptr.To(surge),
			MaxUnavailable: ptr.To(unavailable),
		},
	})
	rollout.Spec.Service = "web"
	rollout.Status = v1alpha1.RolloutStatus{StableRevision: "a", CurrentRevision: "b"}

	return rollout
}

// settle applies a decision the way the cluster would: pods that existed before
// become available, new pods only on the next pass.
func settle(revisions []strategy.RevisionState, replicas map[string]int32) []strategy.RevisionState {
	next := make([]strategy.RevisionState, 0, len(revisions))

	for _, state := range revisions {
		desired := replicas[state.Hash]
		next = append(next, rev(state.Hash, state.Number, desired, min(desired, state.Replicas)))
	}

	return next
}

func TestPlan_RollingUpdateFirstPass(t *testing.T) {
	t.Parallel()

	rollout := rollingRollout(4, intstr.FromString("25%"), intstr.FromString("25%"))

	decision := plan(t, rollout, "b", now, rev("a", 1, 4, 4), rev("b", 2, 0, 0))

	assert.Equal(t, map[string]int32{"a": 3, "b": 1}, decision.Replicas)
	assert.Equal(t, map[string]string{"web": strategy.AllRevisions}, decision.Routes)
	assert.Equal(t, v1alpha1.PhaseProgressing, decision.Status.Phase)
}

func TestPlan_RollingUpdateRespectsBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		replicas        int32
		surge           intstr.IntOrString
		unavailable     intstr.IntOrString
		wantSurge       int32
		wantUnavailable int32
	}{
		{
			name:            "percentages",
			replicas:        4,
			surge:           intstr.FromString("25%"),
			unavailable:     intstr.FromString("25%"),
			wantSurge:       1,
			wantUnavailable: 1,
		},
		{
			name:            "surge only",
			replicas:        5,
			surge:           intstr.FromInt32(1),
			unavailable:     intstr.FromInt32(0),
			wantSurge:       1,
			wantUnavailable: 0,
		},
		{
			name:            "both zero allows one unavailable",
			replicas:        3,
			surge:           intstr.FromInt32(0),
			unavailable:     intstr.FromInt32(0),
			wantSurge:       0,
			wantUnavailable: 1,
		},
		{
			name:            "full surge",
			replicas:        10,
			surge:           intstr.FromString("100%"),
			unavailable:     intstr.FromInt32(0),
			wantSurge:       10,
			wantUnavailable: 0,
		},
		{
			name:            "rounding",
			replicas:        7,
			surge:           intstr.FromString("10%"),
			unavailable:     intstr.FromString("30%"),
			wantSurge:       1,
			wantUnavailable: 2,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			rollout := rollingRollout(testCase.replicas, testCase.surge, testCase.unavailable)
			revisions := []strategy.RevisionState{
				rev("a", 1, testCase.replicas, testCase.replicas),
				rev("b", 2, 0, 0),
			}

			done := false

			for pass := range 100 {
				decision := plan(t, rollout, "b", now.Add(time.Duration(pass)*time.Second), revisions...)

				var total, available int32
				for _, state := range revisions {
					total += decision.Replicas[state.Hash]
					available += min(decision.Replicas[state.Hash], state.Available)
				}

				require.LessOrEqual(t, total, testCase.replicas+testCase.wantSurge, "pass %d", pass)
				require.GreaterOrEqual(t, available, testCase.replicas-testCase.wantUnavailable, "pass %d", pass)

				rollout.Status = decision.Status
				if decision.Status.Phase == v1alpha1.PhaseHealthy {
					done = true

					break
				}

				revisions = settle(revisions, decision.Replicas)
			}

			require.True(t, done, "rolling update did not complete")
			assert.Equal(t, "b", rollout.Status.StableRevision)
			assert.Equal(t, int32(0), revisions[0].Replicas)
		})
	}
}

func TestPlan_RollingUpdateProgressDeadline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		stalled     bool
		wantPhase   v1alpha1.Phase
		wantMessage string
	}{
		{
			name:      "slow but steady update completes past the deadline",
			wantPhase: v1alpha1.PhaseHealthy,
		},
		{
			name:        "stalled update aborts after the deadline",
			stalled:     true,
			wantPhase:   v1alpha1.PhaseDegraded,
			wantMessage: "ProgressDeadlineExceeded",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			rollout := rollingRollout(20, intstr.FromInt32(1), intstr.FromInt32(0))
			revisions := []strategy.RevisionState{rev("a", 1, 20, 20), rev("b", 2, 0, 0)}

			var (
				decision strategy.Decision
				at       time.Time
			)

			for pass := range 200 {
				at = now.Add(time.Duration(pass) * time.Minute)
				decision = plan(t, rollout, "b", at, revisions...)
				rollout.Status = decision.Status

				if decision.Status.Phase != v1alpha1.PhaseProgressing {
					break
				}

				// A stalled cluster never acts on the decisions.
				if !testCase.stalled {
					revisions = settle(revisions, decision.Replicas)
				}
			}

			assert.Equal(t, testCase.wantPhase, decision.Status.Phase, decision.Status.Message)
			assert.Greater(t, at.Sub(now), rollout.ProgressDeadline())

			if testCase.wantMessage != "" {
				assert.Contains(t, decision.Status.Message, testCase.wantMessage)
				assert.True(t, decision.Status.Abort)
			} else {
				assert.Equal(t, "b", decision.Status.StableRevision)
				assert.Empty(t, decision.Status.ProgressMarker)
			}
		})
	}
}
