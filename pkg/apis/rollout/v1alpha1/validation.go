package v1alpha1

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/validation"
)

// maxWeight is the upper bound for canary weights.
const maxWeight = 100

// Validate checks a defaulted Rollout for structural errors.
// All problems are joined into a single error so users can fix them in one pass.
func Validate(rollout *Rollout) error {
	var errs []error

	errs = append(errs, validateName(rollout.Name))

	if rollout.Spec.Replicas != nil && *rollout.Spec.Replicas < 0 {
		errs = append(errs, fmt.Errorf("%w: spec.replicas must not be negative (got %d)",
			ErrInvalidReplicas, *rollout.Spec.Replicas))
	}

	if len(rollout.Spec.Template.Spec.Containers) == 0 {
		errs = append(errs, ErrMissingContainers)
	}

	errs = append(errs, validateStrategy(rollout.Spec.Strategy))

	return errors.Join(errs...)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}

	msgs := validation.IsDNS1123Label(name)
	if len(msgs) > 0 {
		return fmt.Errorf("%w: %q: %s", ErrInvalidName, name, strings.Join(msgs, "; "))
	}

	return nil
}

//nolint:cyclop // one branch per strategy type
func validateStrategy(strategy Strategy) error {
	if !strategy.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy.Type)
	}

	switch strategy.Type {
	case StrategyBlueGreen:
		if strategy.Canary != nil || strategy.RollingUpdate != nil {
			return fmt.Errorf("%w: %s", ErrStrategyMismatch, strategy.Type)
		}

		return validateBlueGreen(strategy.BlueGreen)
	case StrategyRollingUpdate:
		if strategy.Canary != nil || strategy.BlueGreen != nil {
			return fmt.Errorf("%w: %s", ErrStrategyMismatch, strategy.Type)
		}

		return validateRollingUpdate(strategy.RollingUpdate)
	case StrategyCanary:
		if strategy.BlueGreen != nil || strategy.RollingUpdate != nil {
			return fmt.Errorf("%w: %s", ErrStrategyMismatch, strategy.Type)
		}

		return validateCanary(strategy.Canary)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy.Type)
	}
}

func validateBlueGreen(blueGreen *BlueGreenStrategy) error {
	if blueGreen == nil || blueGreen.ActiveService == "" {
		return ErrMissingActiveService
	}

	if blueGreen.PreviewService == blueGreen.ActiveService {
		return fmt.Errorf("%w: activeService and previewService are both %q",
			ErrSameServiceName, blueGreen.ActiveService)
	}

	if blueGreen.PreviewReplicaCount != nil && *blueGreen.PreviewReplicaCount < 0 {
		return fmt.Errorf("%w: previewReplicaCount must not be negative", ErrInvalidReplicas)
	}

	if blueGreen.PrePromotionAnalysis != nil {
		return validateAnalysis("prePromotionAnalysis", blueGreen.PrePromotionAnalysis)
	}

	return nil
}

func validateRollingUpdate(rolling *RollingUpdateStrategy) error {
	if rolling == nil {
		return nil
	}

	var errs []error

	errs = append(errs, validateIntOrPercent("maxSurge", rolling.MaxSurge))
	errs = append(errs, validateIntOrPercent("maxUnavailable", rolling.MaxUnavailable))

	return errors.Join(errs...)
}

func validateIntOrPercent(field string, value *intstr.IntOrString) error {
	if value == nil {
		return nil
	}

	if value.Type == intstr.Int {
		if value.IntVal < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidIntOrPercent, field)
		}

		return nil
	}

	_, err := intstr.GetScaledValueFromIntOrPercent(value, maxWeight, false)
	if err != nil || !strings.HasSuffix(value.StrVal, "%") {
		return fmt.Errorf("%w: %s %q", ErrInvalidIntOrPercent, field, value.StrVal)
	}

	return nil
}

func validateCanary(canary *CanaryStrategy) error {
	if canary == nil {
		return nil
	}

	if canary.StableService != "" && canary.StableService == canary.CanaryService {
		return fmt.Errorf("%w: stableService and canaryService are both %q",
			ErrSameServiceName, canary.StableService)
	}

	var errs []error

	for i, step := range canary.Steps {
		errs = append(errs, validateStep(i, step))
	}

	return errors.Join(errs...)
}

func validateStep(index int, step CanaryStep) error {
	set := 0

	if step.SetWeight != nil {
		set++

		if *step.SetWeight < 0 || *step.SetWeight > maxWeight {
			return fmt.Errorf("%w: steps[%d].setWeight=%d", ErrInvalidWeight, index, *step.SetWeight)
		}
	}

	if step.Pause != nil {
		set++
	}

	if step.Analysis != nil {
		set++

		err := validateAnalysis(fmt.Sprintf("steps[%d].analysis", index), step.Analysis)
		if err != nil {
			return err
		}
	}

	if set != 1 {
		return fmt.Errorf("%w: steps[%d]", ErrInvalidCanaryStep, index)
	}

	return nil
}

func validateAnalysis(field string, analysis *Analysis) error {
	if analysis.SuccessfulChecks <= 0 {
		return fmt.Errorf("%w: %s.successfulChecks must be positive", ErrInvalidAnalysis, field)
	}

	if analysis.Interval.Duration <= 0 {
		return fmt.Errorf("%w: %s.interval must be positive", ErrInvalidAnalysis, field)
	}

	if analysis.MaxRestarts < 0 {
		return fmt.Errorf("%w: %s.maxRestarts must not be negative", ErrInvalidAnalysis, field)
	}

	return nil
}
