package controller

import (
	"context"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/utils/logging"
	"github.com/sirupsen/logrus"
	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	ctrlcontroller "sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// RunManager runs the controller-runtime engine until ctx is done.
func RunManager(
	ctx context.Context,
	restConfig *rest.Config,
	rec Reconciler,
	opts Options,
	logger *logrus.Logger,
) error {
	opts = opts.WithDefaults()

	err := opts.Validate()
	if err != nil {
		return err
	}

	log := logging.Logr(logger)
	ctrl.SetLogger(log)

	scheme := runtime.NewScheme()

	err = clientgoscheme.AddToScheme(scheme)
	if err != nil {
		return fmt.Errorf("build scheme: %w", err)
	}

	mgr, err := ctrl.NewManager(restConfig, managerOptions(scheme, opts))
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	err = mgr.AddHealthzCheck("healthz", healthz.Ping)
	if err != nil {
		return fmt.Errorf("add health check: %w", err)
	}

	err = mgr.AddReadyzCheck("readyz", healthz.Ping)
	if err != nil {
		return fmt.Errorf("add ready check: %w", err)
	}

	err = ctrl.NewControllerManagedBy(mgr).
		Named("rollout").
		For(rolloutObject()).
		Owns(&appsv1.Deployment{}).
		WithOptions(ctrlcontroller.Options{MaxConcurrentReconciles: opts.Workers}).
		Complete(reconcileFunc(rec))
	if err != nil {
		return fmt.Errorf("create rollout controller: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"namespace": opts.Namespace,
		"workers":   opts.Workers,
		"leader":    opts.LeaderElection,
	}).Info("starting rollout controller manager")

	err = mgr.Start(ctx)
	if err != nil {
		return fmt.Errorf("run manager: %w", err)
	}

	return nil
}

// --- internals ---

func managerOptions(scheme *runtime.Scheme, opts Options) ctrl.Options {
	cacheOptions := cache.Options{SyncPeriod: &opts.Resync}
	if opts.Namespace != "" {
		cacheOptions.DefaultNamespaces = map[string]cache.Config{opts.Namespace: {}}
	}

	return ctrl.Options{
		Scheme:                  scheme,
		Cache:                   cacheOptions,
		Metrics:                 metricsserver.Options{BindAddress: opts.MetricsAddr},
		HealthProbeBindAddress:  opts.ProbeAddr,
		LeaderElection:          opts.LeaderElection,
		LeaderElectionID:        LeaderElectionID,
		LeaderElectionNamespace: opts.LeaderElectionNamespace,
	}
}

func rolloutObject() *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(v1alpha1.GroupVersionKind)

	return obj
}

func reconcileFunc(rec Reconciler) reconcile.Func {
	return func(ctx context.Context, req reconcile.Request) (reconcile.Result, error) {
		result, err := rec.Reconcile(ctx, req.Namespace, req.Name)
		if err != nil {
			return reconcile.Result{}, fmt.Errorf("reconcile %s: %w", req.NamespacedName, err)
		}

		return reconcile.Result{RequeueAfter: result.RequeueAfter}, nil
	}
}
