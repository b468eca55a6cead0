package configmanager

import (
	"errors"
	"fmt"
	"slices"

	"github.com/devantler-tech/rollctl/pkg/svc/controller"
	"github.com/devantler-tech/rollctl/pkg/utils/envvar"
	"github.com/devantler-tech/rollctl/pkg/utils/logging"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Config file coordinates.
const (
	APIVersion = "rollctl.io/v1alpha1"
	Kind       = "Config"
)

var (
	// ErrInvalidAPIVersion is returned for a config file with a foreign apiVersion.
	ErrInvalidAPIVersion = errors.New("invalid config apiVersion")
	// ErrInvalidKind is returned for a config file with a foreign kind.
	ErrInvalidKind = errors.New("invalid config kind")
	// ErrNegativeValue is returned for counts and durations below zero.
	ErrNegativeValue = errors.New("value must not be negative")
)

// Config is rollctl's CLI and controller configuration, read from rollctl.yaml,
// ROLLCTL_* environment variables and flags.
type Config struct {
	metav1.TypeMeta `json:",inline"`

	Connection Connection        `json:"connection,omitzero"`
	Cluster    ClusterOptions    `json:"cluster,omitzero"`
	Image      ImageOptions      `json:"image,omitzero"`
	Controller ControllerOptions `json:"controller,omitzero"`
}

// Connection selects the cluster and namespace commands talk to.
type Connection struct {
	Kubeconfig string          `json:"kubeconfig,omitzero"`
	Context    string          `json:"context,omitzero"`
	Namespace  string          `json:"namespace,omitzero"`
	Timeout    metav1.Duration `json:"timeout,omitzero"`
}

// ClusterOptions configures local kind clusters.
type ClusterOptions struct {
	Name         string          `json:"name,omitzero"`
	NodeImage    string          `json:"nodeImage,omitzero"`
	Workers      int32           `json:"workers,omitzero"`
	ConfigPath   string          `json:"configPath,omitzero"`
	WaitForReady metav1.Duration `json:"waitForReady,omitzero"`
}

// ImageOptions holds registry credentials for image pushes.
type ImageOptions struct {
	Username string `json:"username,omitzero"`
	Password string `json:"password,omitzero"`
	Insecure bool   `json:"insecure,omitzero"`
}

// ControllerOptions configures installing and running the controller.
type ControllerOptions struct {
	Image                   string            `json:"image,omitzero"`
	SystemNamespace         string            `json:"systemNamespace,omitzero"`
	WatchNamespace          string            `json:"watchNamespace,omitzero"`
	Engine                  controller.Engine `json:"engine,omitzero"`
	Resync                  metav1.Duration   `json:"resync,omitzero"`
	Concurrency             int32             `json:"concurrency,omitzero"`
	MaxRestarts             int32             `json:"maxRestarts,omitzero"`
	Journal                 string            `json:"journal,omitzero"`
	LogLevel                string            `json:"logLevel,omitzero"`
	LogFormat               logging.Format    `json:"logFormat,omitzero"`
	MetricsAddr             string            `json:"metricsAddr,omitzero"`
	ProbeAddr               string            `json:"probeAddr,omitzero"`
	LeaderElection          bool              `json:"leaderElection,omitzero"`
	LeaderElectionNamespace string            `json:"leaderElectionNamespace,omitzero"`
	InCluster               bool              `json:"inCluster,omitzero"`
}

// NewConfig returns a Config with its type metadata set.
func NewConfig() *Config {
	return &Config{
		TypeMeta: metav1.TypeMeta{APIVersion: APIVersion, Kind: Kind},
	}
}

// ExpandEnv expands ${NAME} and ${NAME:-fallback} references in the string
// fields that commonly hold paths, namespaces and credentials.
func (c *Config) ExpandEnv() {
	envvar.ExpandAll(
		&c.Connection.Kubeconfig,
		&c.Connection.Context,
		&c.Connection.Namespace,
		&c.Cluster.Name,
		&c.Cluster.NodeImage,
		&c.Cluster.ConfigPath,
		&c.Image.Username,
		&c.Image.Password,
		&c.Controller.Image,
		&c.Controller.SystemNamespace,
		&c.Controller.WatchNamespace,
		&c.Controller.Journal,
		&c.Controller.LeaderElectionNamespace,
	)
}

// Validate reports every invalid value of the config.
func (c *Config) Validate() error {
	var errs []error

	if c.APIVersion != "" && c.APIVersion != APIVersion {
		errs = append(errs, fmt.Errorf("%w: %q, expected %q", ErrInvalidAPIVersion, c.APIVersion, APIVersion))
	}

	if c.Kind != "" && c.Kind != Kind {
		errs = append(errs, fmt.Errorf("%w: %q, expected %q", ErrInvalidKind, c.Kind, Kind))
	}

	if c.Controller.Engine != "" && !slices.Contains(controller.ValidEngines(), c.Controller.Engine) {
		errs = append(errs, fmt.Errorf("controller.engine: %w: %s", controller.ErrInvalidEngine, c.Controller.Engine))
	}

	format := c.Controller.LogFormat
	if format != "" && format != logging.FormatText && format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("controller.logFormat: %w: %s", logging.ErrInvalidFormat, format))
	}

	for _, check := range []struct {
		field string
		value int64
	}{
		{"connection.timeout", int64(c.Connection.Timeout.Duration)},
		{"cluster.workers", int64(c.Cluster.Workers)},
		{"controller.resync", int64(c.Controller.Resync.Duration)},
		{"controller.concurrency", int64(c.Controller.Concurrency)},
		{"controller.maxRestarts", int64(c.Controller.MaxRestarts)},
	} {
		if check.value < 0 {
			errs = append(errs, fmt.Errorf("%s: %w", check.field, ErrNegativeValue))
		}
	}

	return errors.Join(errs...)
}
