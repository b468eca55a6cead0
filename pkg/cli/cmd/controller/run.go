package controller

import (
	"fmt"
	"os"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	ctrl "github.com/devantler-tech/rollctl/pkg/svc/controller"
	"github.com/devantler-tech/rollctl/pkg/svc/health"
	"github.com/devantler-tech/rollctl/pkg/svc/journal"
	"github.com/devantler-tech/rollctl/pkg/svc/reconciler"
	"github.com/devantler-tech/rollctl/pkg/utils/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const runLongDesc = `Run the rollout controller until interrupted.

The manager engine watches rollouts and their revisions with
controller-runtime and supports leader election, health probes and metrics.
The poll engine lists every rollout each --resync interval instead, which needs
no watch permissions.

Logs are written to stderr. --journal records every phase change and step in
a SQLite file that 'rollout history --events' reads.

Examples:
  # Run against the current kubeconfig context
  rollctl controller run

  # Run the poll engine for a single namespace with JSON logs
  rollctl controller run --engine poll --watch-namespace shop --log-format json`

// NewRunCmd creates the controller run command.
func NewRunCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the rollout controller",
		Long:         runLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.ControllerRunFieldSelectors())

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		cfg, err := cfgManager.LoadConfigSilent()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		return handleRunRunE(cmd, injector, cfg)
	})

	return cmd
}

func handleRunRunE(cmd *cobra.Command, injector di.Injector, cfg *configmanager.Config) error {
	opts := runOptions(cfg)

	err := opts.Validate()
	if err != nil {
		return err
	}

	// The command's error writer is buffered until exit, so logs go straight to stderr.
	logger, err := logging.New(os.Stderr, cfg.Controller.LogLevel, cfg.Controller.LogFormat)
	if err != nil {
		return err
	}

	clients, err := runClients(injector, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var recorder journal.Recorder = journal.Nop{}

	if cfg.Controller.Journal != "" {
		events, err := journal.Open(ctx, cfg.Controller.Journal)
		if err != nil {
			return err
		}

		defer func() {
			closeErr := events.Close()
			if closeErr != nil {
				logger.WithError(closeErr).Warn("closing journal")
			}
		}()

		recorder = events
	}

	rec := reconciler.New(
		clients.Kube,
		clients.Dynamic,
		reconciler.WithLogger(logger),
		reconciler.WithRecorder(recorder),
		reconciler.WithHealthPolicy(healthPolicy(cfg)),
	)

	logger.WithFields(logrus.Fields{
		"engine":    opts.Engine,
		"namespace": opts.Namespace,
		"workers":   opts.Workers,
		"resync":    opts.Resync,
	}).Info("starting controller")

	err = ctrl.Run(ctx, clients, rec, opts, logger)
	if err != nil {
		return fmt.Errorf("run controller: %w", err)
	}

	logger.Info("controller stopped")

	return nil
}

func runOptions(cfg *configmanager.Config) ctrl.Options {
	return ctrl.Options{
		Namespace:               cfg.Controller.WatchNamespace,
		Engine:                  cfg.Controller.Engine,
		Resync:                  cfg.Controller.Resync.Duration,
		Workers:                 int(cfg.Controller.Concurrency),
		MetricsAddr:             cfg.Controller.MetricsAddr,
		ProbeAddr:               cfg.Controller.ProbeAddr,
		LeaderElection:          cfg.Controller.LeaderElection,
		LeaderElectionNamespace: cfg.Controller.LeaderElectionNamespace,
	}.WithDefaults()
}

func healthPolicy(cfg *configmanager.Config) health.Policy {
	if cfg.Controller.MaxRestarts <= 0 {
		return health.Policy{}
	}

	maxRestarts := cfg.Controller.MaxRestarts

	return health.Policy{MaxRestarts: &maxRestarts}
}

// runClients uses the pod's service account in cluster and the kubeconfig otherwise.
func runClients(injector di.Injector, cfg *configmanager.Config) (*k8s.Clients, error) {
	if !cfg.Controller.InCluster {
		return helpers.KubeClients(injector, cfg)
	}

	restConfig, err := k8s.LoadRESTConfig("", "", true)
	if err != nil {
		return nil, err
	}

	return k8s.NewClients(restConfig)
}
