package installer

import (
	"errors"
	"time"
)

// DefaultInstallTimeout is the default timeout (5 minutes) for component installation.
const DefaultInstallTimeout = 5 * time.Minute

// Labels and annotations set on installed resources.
const (
	// AnnotationVersion records the rollctl version that installed the CRD.
	AnnotationVersion = "rollctl.io/version"
	// LabelManagedBy marks resources owned by the installer.
	LabelManagedBy = "app.kubernetes.io/managed-by"
	// ManagedByValue is the value of LabelManagedBy.
	ManagedByValue = "rollctl"
)

// ErrCRDNotEstablished is returned when the Rollout CRD does not become Established in time.
var ErrCRDNotEstablished = errors.New("rollout CRD not established")

// GetInstallTimeout returns timeout, or DefaultInstallTimeout when it is not positive.
func GetInstallTimeout(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}

	return DefaultInstallTimeout
}

func managedLabels() map[string]string {
	return map[string]string{
		LabelManagedBy:           ManagedByValue,
		"app.kubernetes.io/name": ManagedByValue,
	}
}
