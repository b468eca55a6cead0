// Package strategy plans how a rollout moves from its stable revision to its
// current one.
//
// Plan is a pure function: it takes an Observation of a rollout and its
// revisions at a point in time and returns a Decision with the replica count of
// every revision, the revision each Service routes to, the revisions to prune
// and the next status. It performs no I/O, so every strategy is tested with a
// fixed clock.
package strategy
