// Package revision names, builds and lists the Deployments that back each pod
// template revision of a Rollout.
package revision
