// Package reconciler drives a single Rollout one step closer to its desired
// state: it observes the rollout's revisions, asks the strategy planner what to
// do next, applies the decision and records the outcome.
package reconciler
