package v1alpha1

import (
	"fmt"
	"slices"
	"strings"
)

// --- Enum Interface ---

// EnumValuer is implemented by string-based enum types to provide their valid values.
type EnumValuer interface {
	// ValidValues returns all valid string values for this enum type.
	ValidValues() []string
}

// --- Strategy Types ---

// StrategyType selects the deployment strategy of a Rollout.
type StrategyType string

const (
	// StrategyBlueGreen runs the new revision alongside the stable one and switches traffic atomically.
	StrategyBlueGreen StrategyType = "BlueGreen"
	// StrategyRollingUpdate replaces pods incrementally.
	StrategyRollingUpdate StrategyType = "RollingUpdate"
	// StrategyCanary shifts a growing share of replicas to the new revision in steps.
	StrategyCanary StrategyType = "Canary"
)

// ValidStrategyTypes returns supported strategy values.
func ValidStrategyTypes() []StrategyType {
	return []StrategyType{StrategyBlueGreen, StrategyRollingUpdate, StrategyCanary}
}

// Set for StrategyType (pflag.Value interface).
func (s *StrategyType) Set(value string) error {
	for _, strategy := range ValidStrategyTypes() {
		if strings.EqualFold(value, string(strategy)) {
			*s = strategy

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s, %s)",
		ErrInvalidStrategy,
		value,
		StrategyBlueGreen,
		StrategyRollingUpdate,
		StrategyCanary,
	)
}

// IsValid checks if the strategy value is supported.
func (s *StrategyType) IsValid() bool {
	return slices.Contains(ValidStrategyTypes(), *s)
}

// String returns the string representation of the StrategyType.
func (s *StrategyType) String() string {
	return string(*s)
}

// Type returns the type of the StrategyType.
func (s *StrategyType) Type() string {
	return "StrategyType"
}

// Default returns the default value for StrategyType (RollingUpdate).
func (s *StrategyType) Default() any {
	return StrategyRollingUpdate
}

// ValidValues returns all valid StrategyType values as strings.
func (s *StrategyType) ValidValues() []string {
	return []string{
		string(StrategyBlueGreen),
		string(StrategyRollingUpdate),
		string(StrategyCanary),
	}
}

// --- Phase Types ---

// Phase summarises the state of a Rollout.
type Phase string

const (
	// PhaseProgressing means a revision is being rolled out.
	PhaseProgressing Phase = "Progressing"
	// PhasePaused means the rollout waits for a promotion, a timer or a resume.
	PhasePaused Phase = "Paused"
	// PhaseHealthy means the stable revision runs at full availability.
	PhaseHealthy Phase = "Healthy"
	// PhaseDegraded means the rollout was aborted or is otherwise failing.
	PhaseDegraded Phase = "Degraded"
)

// ValidPhases returns all phase values.
func ValidPhases() []Phase {
	return []Phase{PhaseProgressing, PhasePaused, PhaseHealthy, PhaseDegraded}
}

// Set for Phase (pflag.Value interface).
func (p *Phase) Set(value string) error {
	for _, phase := range ValidPhases() {
		if strings.EqualFold(value, string(phase)) {
			*p = phase

			return nil
		}
	}

	return fmt.Errorf(
		"%w: %s (valid options: %s, %s, %s, %s)",
		ErrInvalidPhase,
		value,
		PhaseProgressing,
		PhasePaused,
		PhaseHealthy,
		PhaseDegraded,
	)
}

// String returns the string representation of the Phase.
func (p *Phase) String() string {
	return string(*p)
}

// Type returns the type of the Phase.
func (p *Phase) Type() string {
	return "Phase"
}

// ValidValues returns all valid Phase values as strings.
func (p *Phase) ValidValues() []string {
	return []string{
		string(PhaseProgressing),
		string(PhasePaused),
		string(PhaseHealthy),
		string(PhaseDegraded),
	}
}

// IsTerminal reports whether no further progress happens without user input or a spec change.
func (p Phase) IsTerminal() bool {
	return p == PhaseHealthy || p == PhaseDegraded
}

// --- Pause Reasons ---

// PauseReason explains why a Rollout is paused.
type PauseReason string

const (
	// PauseReasonNone means the rollout is not paused.
	PauseReasonNone PauseReason = ""
	// PauseReasonCanaryStep is set while a canary pause step is active.
	PauseReasonCanaryStep PauseReason = "CanaryPauseStep"
	// PauseReasonBlueGreen is set while a blue-green preview waits for promotion.
	PauseReasonBlueGreen PauseReason = "BlueGreenPause"
	// PauseReasonUser is set while spec.paused is true.
	PauseReasonUser PauseReason = "UserPaused"
)
