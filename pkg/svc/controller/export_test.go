package controller

import (
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// ReconcileFunc exposes reconcileFunc for testing.
func ReconcileFunc(rec Reconciler) reconcile.Func {
	return reconcileFunc(rec)
}

// ManagerOptions exposes managerOptions for testing.
func ManagerOptions(scheme *runtime.Scheme, opts Options) ctrl.Options {
	return managerOptions(scheme, opts)
}
