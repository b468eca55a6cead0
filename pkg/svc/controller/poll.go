package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/flowcontrol"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
)

// Backoff bounds for rollouts whose reconcile failed.
const (
	InitialBackoff = time.Second
	MaxBackoff     = 2 * time.Minute
)

const probeShutdownTimeout = 5 * time.Second

// Lister lists rollouts. *store.Store implements it.
type Lister interface {
	List(ctx context.Context, namespace string) ([]v1alpha1.Rollout, error)
}

// Poller is the poll engine. It lists every rollout each resync and
// reconciles rollouts again when their requeue time is due.
type Poller struct {
	lister     Lister
	reconciler Reconciler
	opts       Options
	logger     logrus.FieldLogger
	clock      func() time.Time
	backoff    *flowcontrol.Backoff

	mu  sync.Mutex
	due map[types.NamespacedName]time.Time
}

// NewPoller creates a Poller.
func NewPoller(lister Lister, rec Reconciler, opts Options, logger logrus.FieldLogger) *Poller {
	return NewPollerWithClock(lister, rec, opts, logger, time.Now)
}

// NewPollerWithClock creates a Poller driven by clock.
func NewPollerWithClock(
	lister Lister,
	rec Reconciler,
	opts Options,
	logger logrus.FieldLogger,
	clock func() time.Time,
) *Poller {
	return &Poller{
		lister:     lister,
		reconciler: rec,
		opts:       opts.WithDefaults(),
		logger:     logger,
		clock:      clock,
		backoff:    flowcontrol.NewBackOff(InitialBackoff, MaxBackoff),
		due:        make(map[types.NamespacedName]time.Time),
	}
}

// Run resyncs and reconciles until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	err := p.opts.Validate()
	if err != nil {
		return err
	}

	stopProbes := p.serveProbes()
	defer stopProbes()

	p.logger.WithFields(logrus.Fields{
		"namespace": p.opts.Namespace,
		"resync":    p.opts.Resync,
		"workers":   p.opts.Workers,
	}).Info("starting rollout poller")

	nextResync := p.clock()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		now := p.clock()
		if !now.Before(nextResync) {
			err = p.Resync(ctx)
			if err != nil {
				p.logger.WithError(err).Warn("resync failed")
			}

			nextResync = now.Add(p.opts.Resync)
		}

		p.ReconcileDue(ctx)

		wait := nextResync.Sub(p.clock())
		if next, ok := p.nextDue(); ok && next.Sub(p.clock()) < wait {
			wait = next.Sub(p.clock())
		}

		timer.Reset(max(wait, 0))
	}
}

// RunOnce resyncs and reconciles every rollout once.
func (p *Poller) RunOnce(ctx context.Context) error {
	err := p.Resync(ctx)
	if err != nil {
		return err
	}

	p.ReconcileDue(ctx)

	return nil
}

// Resync lists rollouts and marks all of them due, except rollouts backing off
// after a failure. Rollouts that disappeared are forgotten.
func (p *Poller) Resync(ctx context.Context) error {
	rollouts, err := p.lister.List(ctx, p.opts.Namespace)
	if err != nil {
		return fmt.Errorf("resync rollouts: %w", err)
	}

	now := p.clock()
	due := make(map[types.NamespacedName]time.Time, len(rollouts))

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range rollouts {
		key := types.NamespacedName{Namespace: rollouts[i].Namespace, Name: rollouts[i].Name}

		at, ok := p.due[key]
		if !ok || !at.After(now) || p.backoff.Get(key.String()) == 0 {
			at = now
		}

		due[key] = at
	}

	p.due = due

	return nil
}

// ReconcileDue reconciles every rollout whose requeue time has passed, at most
// Workers at a time.
func (p *Poller) ReconcileDue(ctx context.Context) {
	now := p.clock()

	var keys []types.NamespacedName

	p.mu.Lock()

	for key, at := range p.due {
		if !at.After(now) {
			keys = append(keys, key)
		}
	}

	p.mu.Unlock()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.Workers)

	for _, key := range keys {
		group.Go(func() error {
			p.reconcile(groupCtx, key)

			return nil
		})
	}

	_ = group.Wait()
}

// Due returns when key is reconciled next.
func (p *Poller) Due(key types.NamespacedName) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	at, ok := p.due[key]

	return at, ok
}

// --- internals ---

func (p *Poller) reconcile(ctx context.Context, key types.NamespacedName) {
	result, err := p.reconciler.Reconcile(ctx, key.Namespace, key.Name)
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		p.backoff.Next(key.String(), now)
		delay := p.backoff.Get(key.String())

		p.logger.WithError(err).WithFields(logrus.Fields{
			"rollout": key.String(),
			"backoff": delay,
		}).Warn("reconcile failed")

		p.due[key] = now.Add(delay)

		return
	}

	p.backoff.Reset(key.String())

	if result.RequeueAfter > 0 {
		p.due[key] = now.Add(result.RequeueAfter)

		return
	}

	delete(p.due, key)
}

func (p *Poller) nextDue() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		next  time.Time
		found bool
	)

	for _, at := range p.due {
		if !found || at.Before(next) {
			next, found = at, true
		}
	}

	return next, found
}

// serveProbes serves /healthz and /readyz on ProbeAddr and returns a stop function.
func (p *Poller) serveProbes() func() {
	if p.opts.ProbeAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	handler := &healthz.Handler{Checks: map[string]healthz.Checker{"ping": healthz.Ping}}
	mux.Handle("/healthz", http.StripPrefix("/healthz", handler))
	mux.Handle("/readyz", http.StripPrefix("/readyz", handler))

	server := &http.Server{
		Addr:              p.opts.ProbeAddr,
		Handler:           mux,
		ReadHeaderTimeout: probeShutdownTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.WithError(err).Error("health probe server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(ctx)
	}
}
