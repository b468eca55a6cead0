package clusterprovisioner

import (
	"io"

	kindprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/kind"
)

// Factory creates cluster provisioners from cluster options.
type Factory interface {
	// Create returns a provisioner writing provider logs to logs.
	Create(opts kindprovisioner.Options, logs io.Writer) (ClusterProvisioner, error)
}

// DefaultFactory creates kind provisioners backed by the detected node provider.
type DefaultFactory struct {
	// Verbosity is the kind log verbosity.
	Verbosity int
}

// Create implements Factory.
func (f DefaultFactory) Create(opts kindprovisioner.Options, logs io.Writer) (ClusterProvisioner, error) {
	provider := kindprovisioner.NewDefaultProviderAdapter(kindprovisioner.NewStreamLogger(logs, f.Verbosity))

	return kindprovisioner.NewKindClusterProvisioner(opts, provider), nil
}
