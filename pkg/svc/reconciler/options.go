package reconciler

import (
	"time"

	"github.com/devantler-tech/rollctl/pkg/svc/health"
	"github.com/devantler-tech/rollctl/pkg/svc/journal"
	"github.com/sirupsen/logrus"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the clock used for pause, analysis and deadline timing.
func WithClock(clock func() time.Time) Option {
	return func(r *Reconciler) {
		r.clock = clock
	}
}

// WithRecorder sets the journal rollout events are recorded to.
func WithRecorder(recorder journal.Recorder) Option {
	return func(r *Reconciler) {
		if recorder != nil {
			r.recorder = recorder
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHealthPolicy sets the policy revisions are evaluated against.
func WithHealthPolicy(policy health.Policy) Option {
	return func(r *Reconciler) {
		r.policy = policy
	}
}
