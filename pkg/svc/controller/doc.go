// Package controller runs the rollout reconciler against a cluster.
//
// Two engines are available. The manager engine uses controller-runtime: it
// watches Rollouts and their revision Deployments, serves health probes and
// metrics, and supports leader election. The poll engine lists every rollout
// on a fixed resync interval and reconciles them with bounded concurrency,
// which needs nothing but list and update permissions.
package controller
