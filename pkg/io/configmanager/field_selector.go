package configmanager

import (
	"time"

	"github.com/devantler-tech/rollctl/pkg/svc/controller"
	"github.com/devantler-tech/rollctl/pkg/svc/installer"
	kindprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/kind"
	"github.com/devantler-tech/rollctl/pkg/utils/logging"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Default values bound to flags.
const (
	DefaultKubeconfig = "~/.kube/config"
	DefaultNamespace  = "default"
	DefaultTimeout    = 5 * time.Minute
)

// FieldSelector defines a field and its metadata for configuration management.
type FieldSelector[T any] struct {
	Selector     func(*T) any // Function that returns a pointer to the field
	Description  string       // Human-readable description for CLI flags
	DefaultValue any          // Default value for the field
}

// --- connection ---

// KubeconfigFieldSelector selects the kubeconfig path.
func KubeconfigFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:     func(c *Config) any { return &c.Connection.Kubeconfig },
		Description:  "Path to kubeconfig file",
		DefaultValue: DefaultKubeconfig,
	}
}

// ContextFieldSelector selects the kubeconfig context. Empty uses the current context.
func ContextFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:    func(c *Config) any { return &c.Connection.Context },
		Description: "Kubernetes context of cluster",
	}
}

// NamespaceFieldSelector selects the namespace of rollouts and manifests.
func NamespaceFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:     func(c *Config) any { return &c.Connection.Namespace },
		Description:  "Namespace of the rollout",
		DefaultValue: DefaultNamespace,
	}
}

// TimeoutFieldSelector selects how long commands wait for the cluster.
func TimeoutFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:     func(c *Config) any { return &c.Connection.Timeout },
		Description:  "Time to wait for the cluster to reach the desired state",
		DefaultValue: metav1.Duration{Duration: DefaultTimeout},
	}
}

// ConnectionFieldSelectors returns the selectors shared by every command talking to a cluster.
func ConnectionFieldSelectors() []FieldSelector[Config] {
	return []FieldSelector[Config]{
		KubeconfigFieldSelector(),
		ContextFieldSelector(),
		NamespaceFieldSelector(),
		TimeoutFieldSelector(),
	}
}

// --- cluster ---

// ClusterNameFieldSelector selects the kind cluster name.
func ClusterNameFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:     func(c *Config) any { return &c.Cluster.Name },
		Description:  "Name of the kind cluster",
		DefaultValue: kindprovisioner.DefaultClusterName,
	}
}

// ClusterFieldSelectors returns the selectors of cluster create.
func ClusterFieldSelectors() []FieldSelector[Config] {
	return []FieldSelector[Config]{
		ClusterNameFieldSelector(),
		KubeconfigFieldSelector(),
		{
			Selector:    func(c *Config) any { return &c.Cluster.NodeImage },
			Description: "kind node image (defaults to the pinned kindest/node release)",
		},
		{
			Selector:     func(c *Config) any { return &c.Cluster.Workers },
			Description:  "Number of worker nodes",
			DefaultValue: int32(0),
		},
		{
			Selector:    func(c *Config) any { return &c.Cluster.ConfigPath },
			Description: "kind config file replacing the generated topology",
		},
		{
			Selector:     func(c *Config) any { return &c.Cluster.WaitForReady },
			Description:  "Time to wait for nodes to become Ready (0 skips the wait)",
			DefaultValue: metav1.Duration{Duration: kindprovisioner.DefaultWaitForReady},
		},
	}
}

// --- image ---

// RegistryFieldSelectors returns the credential selectors of image push.
func RegistryFieldSelectors() []FieldSelector[Config] {
	return []FieldSelector[Config]{
		{
			Selector:    func(c *Config) any { return &c.Image.Username },
			Description: "Registry username (defaults to the docker credential helpers)",
		},
		{
			Selector:    func(c *Config) any { return &c.Image.Password },
			Description: "Registry password or token",
		},
		{
			Selector:    func(c *Config) any { return &c.Image.Insecure },
			Description: "Allow plain HTTP registries",
		},
	}
}

// --- controller ---

// ControllerImageFieldSelector selects the controller image deployed by controller install.
func ControllerImageFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:    func(c *Config) any { return &c.Controller.Image },
		Description: "Controller image (defaults to the image matching this version)",
	}
}

// SystemNamespaceFieldSelector selects the namespace the controller is deployed to.
func SystemNamespaceFieldSelector() FieldSelector[Config] {
	return FieldSelector[Config]{
		Selector:     func(c *Config) any { return &c.Controller.SystemNamespace },
		Description:  "Namespace the controller is deployed to",
		DefaultValue: installer.DefaultNamespace,
	}
}

// ControllerRunFieldSelectors returns the selectors of controller run.
func ControllerRunFieldSelectors() []FieldSelector[Config] {
	return []FieldSelector[Config]{
		KubeconfigFieldSelector(),
		ContextFieldSelector(),
		{
			Selector:    func(c *Config) any { return &c.Controller.WatchNamespace },
			Description: "Only reconcile rollouts in this namespace (empty watches all)",
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.Engine },
			Description:  "Controller engine (manager watches with controller-runtime, poll lists on an interval)",
			DefaultValue: controller.EngineManager,
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.Resync },
			Description:  "Interval at which every rollout is reconciled",
			DefaultValue: metav1.Duration{Duration: controller.DefaultResync},
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.Concurrency },
			Description:  "Maximum concurrent reconciles",
			DefaultValue: int32(controller.DefaultWorkers),
		},
		{
			Selector:    func(c *Config) any { return &c.Controller.MaxRestarts },
			Description: "Degrade a revision whose pods restarted more often (0 disables the check)",
		},
		{
			Selector:    func(c *Config) any { return &c.Controller.Journal },
			Description: "SQLite file recording rollout events (empty disables the journal)",
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.LogLevel },
			Description:  "Log level (debug, info, warn, error)",
			DefaultValue: "info",
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.LogFormat },
			Description:  "Log format",
			DefaultValue: logging.FormatText,
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.MetricsAddr },
			Description:  "Metrics bind address of the manager engine (0 disables metrics)",
			DefaultValue: "0",
		},
		{
			Selector:     func(c *Config) any { return &c.Controller.ProbeAddr },
			Description:  "Health probe bind address (empty disables probes)",
			DefaultValue: controller.DefaultProbeAddr,
		},
		{
			Selector:    func(c *Config) any { return &c.Controller.LeaderElection },
			Description: "Enable leader election (manager engine only)",
		},
		{
			Selector:    func(c *Config) any { return &c.Controller.LeaderElectionNamespace },
			Description: "Namespace of the leader election lease",
		},
		{
			Selector:    func(c *Config) any { return &c.Controller.InCluster },
			Description: "Use the in-cluster service account instead of a kubeconfig",
		},
	}
}
