package controller

import (
	"context"

	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"github.com/sirupsen/logrus"
)

// Run runs the engine selected by opts until ctx is done.
func Run(ctx context.Context, clients *k8s.Clients, rec Reconciler, opts Options, logger *logrus.Logger) error {
	opts = opts.WithDefaults()

	err := opts.Validate()
	if err != nil {
		return err
	}

	if opts.Engine == EnginePoll {
		return NewPoller(store.New(clients.Dynamic), rec, opts, logger).Run(ctx)
	}

	return RunManager(ctx, clients.Config, rec, opts, logger)
}
