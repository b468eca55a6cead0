package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/svc/health"
	"github.com/devantler-tech/rollctl/pkg/svc/journal"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"github.com/devantler-tech/rollctl/pkg/svc/strategy"
	"github.com/devantler-tech/rollctl/pkg/svc/traffic"
	"github.com/devantler-tech/rollctl/pkg/utils/logging"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
)

// ErrInvalidSpec prefixes the status message of a rollout that failed validation.
var ErrInvalidSpec = errors.New("invalid spec")

// ReasonInvalidSpec is the journal reason of a rollout that failed validation.
const ReasonInvalidSpec = "InvalidSpec"

// ReasonServiceNotFound is reported while a routed Service does not exist.
const ReasonServiceNotFound = "ServiceNotFound"

// Result tells the caller when to reconcile the rollout again. A zero
// RequeueAfter means only on the next change or resync.
type Result struct {
	RequeueAfter time.Duration
}

// Reconciler reconciles Rollouts.
type Reconciler struct {
	store     *store.Store
	revisions *revision.Manager
	clientset kubernetes.Interface
	router    *traffic.Router
	recorder  journal.Recorder
	logger    logrus.FieldLogger
	clock     func() time.Time
	policy    health.Policy
}

// New creates a Reconciler using clientset for revisions, pods and Services and
// dynamicClient for Rollouts.
func New(clientset kubernetes.Interface, dynamicClient dynamic.Interface, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:     store.New(dynamicClient),
		revisions: revision.NewManager(clientset),
		clientset: clientset,
		router:    traffic.NewRouter(clientset),
		recorder:  journal.Nop{},
		logger:    logging.Discard(),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reconcile runs one pass over the rollout namespace/name.
//
// A missing rollout is not an error. An invalid spec is reported as a Degraded
// status instead of an error. Errors are transient and the caller should retry
// with backoff.
func (r *Reconciler) Reconcile(ctx context.Context, namespace, name string) (Result, error) {
	logger := r.logger.WithField("rollout", namespace+"/"+name)

	rollout, err := r.store.Get(ctx, namespace, name)
	if errors.Is(err, store.ErrRolloutNotFound) {
		logger.Debug("rollout not found, skipping")

		return Result{}, nil
	}

	if err != nil {
		return Result{}, err //nolint:wrapcheck // store errors name the rollout
	}

	if rollout.DeletionTimestamp != nil {
		return Result{}, nil
	}

	defaulted := rollout.DeepCopy()
	v1alpha1.SetDefaults(defaulted)

	err = v1alpha1.Validate(defaulted)
	if err != nil {
		return Result{}, r.reportInvalid(ctx, logger, rollout, err)
	}

	hash := revision.Hash(defaulted.Spec.Template)

	revisions, err := r.revisions.Ensure(ctx, defaulted, hash, 0)
	if err != nil {
		return Result{}, fmt.Errorf("ensure revision: %w", err)
	}

	states, err := r.observe(ctx, defaulted, revisions)
	if err != nil {
		return Result{}, err
	}

	decision, err := strategy.Plan(strategy.Observation{
		Rollout:     defaulted,
		CurrentHash: hash,
		Revisions:   states,
		Now:         r.clock(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("plan: %w", err)
	}

	err = r.apply(ctx, logger, defaulted, revisions, &decision)
	if err != nil {
		return Result{}, err
	}

	err = r.writeStatus(ctx, rollout, decision.Status)
	if err != nil {
		return Result{}, err
	}

	r.record(ctx, logger, rollout, decision.Status.Phase, decision.Events)

	logger.WithFields(logrus.Fields{
		"phase":    decision.Status.Phase,
		"revision": hash,
		"requeue":  decision.RequeueAfter,
	}).Debug("reconciled")

	return Result{RequeueAfter: decision.RequeueAfter}, nil
}

// --- internals ---

func (r *Reconciler) observe(
	ctx context.Context,
	rollout *v1alpha1.Rollout,
	revisions []revision.Revision,
) ([]strategy.RevisionState, error) {
	states := make([]strategy.RevisionState, 0, len(revisions))

	for _, rev := range revisions {
		pods, err := revision.ListPods(ctx, r.clientset, rollout.Namespace, rollout.Name, rev.Hash)
		if err != nil {
			return nil, fmt.Errorf("observe revision %s: %w", rev.Hash, err)
		}

		revHealth := health.Evaluate(rev.Deployment, pods, r.policy)

		states = append(states, strategy.RevisionState{
			Hash:      rev.Hash,
			Number:    rev.Number,
			Replicas:  rev.Replicas(),
			Ready:     revHealth.Ready,
			Available: revHealth.Available,
			Restarts:  revHealth.Restarts,
			Health:    revHealth.Phase,
			Message:   revHealth.Message,
		})
	}

	return states, nil
}

// apply scales revisions up, routes Services, scales revisions down and prunes,
// in that order, so capacity is in place before traffic moves to it.
func (r *Reconciler) apply(
	ctx context.Context,
	logger logrus.FieldLogger,
	rollout *v1alpha1.Rollout,
	revisions []revision.Revision,
	decision *strategy.Decision,
) error {
	err := r.scale(ctx, rollout, revisions, decision.Replicas, func(current, desired int32) bool {
		return desired > current
	})
	if err != nil {
		return err
	}

	err = r.router.Route(ctx, rollout.Namespace, rollout.Name, decision.Routes)

	switch {
	case errors.Is(err, traffic.ErrServiceNotFound):
		logger.WithError(err).Warn("routing incomplete")

		decision.Status.Message = fmt.Sprintf("%s: %v", ReasonServiceNotFound, err)
		if decision.RequeueAfter == 0 || decision.RequeueAfter > strategy.ProgressRequeueInterval {
			decision.RequeueAfter = strategy.ProgressRequeueInterval
		}
	case err != nil:
		return fmt.Errorf("route services: %w", err)
	}

	err = r.scale(ctx, rollout, revisions, decision.Replicas, func(current, desired int32) bool {
		return desired < current
	})
	if err != nil {
		return err
	}

	for _, hash := range decision.Prune {
		logger.WithField("revision", hash).Info("pruning revision")

		err = r.revisions.Delete(ctx, rollout.Namespace, revision.Name(rollout.Name, hash))
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
	}

	return nil
}

func (r *Reconciler) scale(
	ctx context.Context,
	rollout *v1alpha1.Rollout,
	revisions []revision.Revision,
	desired map[string]int32,
	when func(current, desired int32) bool,
) error {
	for _, rev := range revisions {
		replicas, ok := desired[rev.Hash]
		if !ok || !when(rev.Replicas(), replicas) {
			continue
		}

		err := r.revisions.Scale(ctx, rollout.Namespace, rev.Deployment.Name, replicas)
		if err != nil {
			return err //nolint:wrapcheck // revision errors name the deployment
		}
	}

	return nil
}

func (r *Reconciler) writeStatus(ctx context.Context, rollout *v1alpha1.Rollout, status v1alpha1.RolloutStatus) error {
	if equality.Semantic.DeepEqual(rollout.Status, status) {
		return nil
	}

	updated := rollout.DeepCopy()
	updated.Status = status

	_, err := r.store.UpdateStatus(ctx, updated)
	if err != nil {
		return err //nolint:wrapcheck // store errors name the rollout
	}

	return nil
}

// reportInvalid marks a rollout with an invalid spec Degraded. Nothing else is
// touched, so its revisions keep running as they are.
func (r *Reconciler) reportInvalid(
	ctx context.Context,
	logger logrus.FieldLogger,
	rollout *v1alpha1.Rollout,
	validationErr error,
) error {
	message := fmt.Errorf("%w: %w", ErrInvalidSpec, validationErr).Error()

	status := rollout.DeepCopy().Status
	status.ObservedGeneration = rollout.Generation
	status.Phase = v1alpha1.PhaseDegraded
	status.Message = message
	status.ProgressingSince = nil
	status.ProgressMarker = ""

	meta.SetStatusCondition(&status.Conditions, metav1.Condition{
		Type:               strategy.ConditionHealthy,
		Status:             metav1.ConditionFalse,
		ObservedGeneration: rollout.Generation,
		LastTransitionTime: metav1.NewTime(r.clock()),
		Reason:             ReasonInvalidSpec,
		Message:            message,
	})

	if equality.Semantic.DeepEqual(rollout.Status, status) {
		return nil
	}

	logger.WithError(validationErr).Warn("rollout spec is invalid")

	err := r.writeStatus(ctx, rollout, status)
	if err != nil {
		return err
	}

	r.record(ctx, logger, rollout, v1alpha1.PhaseDegraded, []strategy.Event{{
		Warning:  true,
		Reason:   ReasonInvalidSpec,
		Message:  message,
		Revision: rollout.Status.CurrentRevision,
		Step:     rollout.Status.StepIndex(),
	}})

	return nil
}

// record logs events and writes them to the journal. Journal failures are logged
// and never fail the reconcile.
func (r *Reconciler) record(
	ctx context.Context,
	logger logrus.FieldLogger,
	rollout *v1alpha1.Rollout,
	phase v1alpha1.Phase,
	events []strategy.Event,
) {
	if len(events) == 0 {
		return
	}

	now := r.clock()
	entries := make([]journal.Event, 0, len(events))

	for _, event := range events {
		entry := logger.WithFields(logrus.Fields{
			"reason":   event.Reason,
			"revision": event.Revision,
			"step":     event.Step,
		})
		if event.Warning {
			entry.Warn(event.Message)
		} else {
			entry.Info(event.Message)
		}

		entries = append(entries, journal.Event{
			Time:      now,
			Namespace: rollout.Namespace,
			Rollout:   rollout.Name,
			Revision:  event.Revision,
			Phase:     string(phase),
			Step:      event.Step,
			Reason:    event.Reason,
			Message:   event.Message,
			Warning:   event.Warning,
		})
	}

	err := r.recorder.Record(ctx, entries...)
	if err != nil {
		logger.WithError(err).Warn("failed to journal rollout events")
	}
}
