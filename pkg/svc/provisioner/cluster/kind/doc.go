// Package kindprovisioner creates and deletes local kind clusters for trying
// rollouts end to end. It drives kind's Go API directly and waits for every
// node to report Ready before returning from Create.
package kindprovisioner
