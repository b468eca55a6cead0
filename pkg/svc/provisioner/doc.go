// Package provisioner groups the services that create infrastructure for
// rollouts to run on. See the cluster subpackage.
package provisioner
