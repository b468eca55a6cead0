package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/devantler-tech/rollctl/pkg/svc/reconciler"
)

// ErrInvalidEngine is returned for an unknown engine.
var ErrInvalidEngine = errors.New("invalid controller engine")

// ErrInvalidOptions is returned when Options cannot run a controller.
var ErrInvalidOptions = errors.New("invalid controller options")

// LeaderElectionID is the lease used by the manager engine.
const LeaderElectionID = "rollctl-controller.rollctl.io"

// Defaults for Options.
const (
	DefaultResync    = 30 * time.Second
	DefaultWorkers   = 4
	DefaultProbeAddr = ":8081"
)

// Engine selects how the controller finds work.
type Engine string

const (
	// EngineManager runs a controller-runtime manager with watches.
	EngineManager Engine = "manager"
	// EnginePoll lists rollouts on a fixed interval.
	EnginePoll Engine = "poll"
)

// ValidEngines returns supported engine values.
func ValidEngines() []Engine {
	return []Engine{EngineManager, EnginePoll}
}

// Set for Engine (pflag.Value interface).
func (e *Engine) Set(value string) error {
	for _, engine := range ValidEngines() {
		if strings.EqualFold(value, string(engine)) {
			*e = engine

			return nil
		}
	}

	return fmt.Errorf("%w: %s (valid options: %s, %s)", ErrInvalidEngine, value, EngineManager, EnginePoll)
}

// String returns the string representation of the Engine.
func (e *Engine) String() string {
	return string(*e)
}

// Type returns the type of the Engine.
func (e *Engine) Type() string {
	return "Engine"
}

// ValidValues returns all valid Engine values as strings.
func (e *Engine) ValidValues() []string {
	return []string{string(EngineManager), string(EnginePoll)}
}

// Options configures a controller run.
type Options struct {
	// Namespace restricts the controller to one namespace. Empty watches all.
	Namespace string
	Engine    Engine
	// Resync is how often every rollout is reconciled regardless of changes.
	Resync time.Duration
	// Workers bounds concurrent reconciles.
	Workers int
	// MetricsAddr is the metrics bind address of the manager engine. "0" disables it.
	MetricsAddr string
	// ProbeAddr serves /healthz and /readyz. Empty disables it.
	ProbeAddr               string
	LeaderElection          bool
	LeaderElectionNamespace string
}

// WithDefaults returns a copy of o with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Engine == "" {
		o.Engine = EngineManager
	}

	if o.Resync <= 0 {
		o.Resync = DefaultResync
	}

	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}

	if o.MetricsAddr == "" {
		o.MetricsAddr = "0"
	}

	return o
}

// Validate checks that o can run a controller.
func (o Options) Validate() error {
	if !o.Engine.valid() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidOptions, ErrInvalidEngine, o.Engine)
	}

	if o.Engine == EnginePoll && o.LeaderElection {
		return fmt.Errorf("%w: leader election requires the %s engine", ErrInvalidOptions, EngineManager)
	}

	return nil
}

func (e Engine) valid() bool {
	return slices.Contains(ValidEngines(), e)
}

// Reconciler reconciles one rollout. *reconciler.Reconciler implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, namespace, name string) (reconciler.Result, error)
}
