// Package clusterprovisioner defines the interface for local cluster
// provisioners. The kind subpackage implements it.
package clusterprovisioner
