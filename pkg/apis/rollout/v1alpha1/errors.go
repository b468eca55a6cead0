package v1alpha1

import "errors"

// ErrInvalidStrategy is returned when an invalid strategy type is specified.
var ErrInvalidStrategy = errors.New("invalid strategy")

// ErrInvalidPhase is returned when an invalid phase is specified.
var ErrInvalidPhase = errors.New("invalid phase")

// ErrInvalidName is returned when a rollout name is not DNS-1123 compliant.
var ErrInvalidName = errors.New("invalid rollout name")

// ErrInvalidReplicas is returned when replica counts are negative.
var ErrInvalidReplicas = errors.New("invalid replicas")

// ErrMissingContainers is returned when the pod template has no containers.
var ErrMissingContainers = errors.New("pod template has no containers")

// ErrMissingActiveService is returned when a blue-green strategy has no active service.
var ErrMissingActiveService = errors.New("blue-green strategy requires an active service")

// ErrStrategyMismatch is returned when the strategy options do not match the strategy type.
var ErrStrategyMismatch = errors.New("strategy options do not match strategy type")

// ErrInvalidCanaryStep is returned when a canary step sets zero or several actions.
var ErrInvalidCanaryStep = errors.New("canary step must set exactly one of setWeight, pause or analysis")

// ErrInvalidWeight is returned when a canary weight is outside 0..100.
var ErrInvalidWeight = errors.New("canary weight must be between 0 and 100")

// ErrInvalidAnalysis is returned when an analysis has non-positive checks or interval.
var ErrInvalidAnalysis = errors.New("invalid analysis")

// ErrInvalidIntOrPercent is returned when maxSurge or maxUnavailable cannot be parsed.
var ErrInvalidIntOrPercent = errors.New("invalid int or percentage")

// ErrSameServiceName is returned when two strategy services share a name.
var ErrSameServiceName = errors.New("strategy services must differ")
