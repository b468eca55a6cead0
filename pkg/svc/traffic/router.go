// Package traffic shifts traffic between rollout revisions by rewriting the
// selectors of user-owned Services.
package traffic

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ErrServiceNotFound is returned when a routed Service does not exist.
var ErrServiceNotFound = errors.New("service not found")

// AllRevisions routes a Service to every revision of the rollout.
const AllRevisions = ""

// Router rewrites Service selectors.
type Router struct {
	clientset kubernetes.Interface
}

// NewRouter creates a Router.
func NewRouter(clientset kubernetes.Interface) *Router {
	return &Router{clientset: clientset}
}

// Route points every Service in routes at its revision hash, or at all revisions
// of the rollout for AllRevisions. Only the rollctl selector keys are touched.
// Every Service is attempted and the errors are joined.
func (r *Router) Route(ctx context.Context, namespace, rollout string, routes map[string]string) error {
	var errs []error

	for _, service := range slices.Sorted(maps.Keys(routes)) {
		err := r.routeService(ctx, namespace, rollout, service, routes[service])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Selected returns the revision a Service routes to, AllRevisions when it selects
// every revision.
func (r *Router) Selected(ctx context.Context, namespace, service string) (string, error) {
	svc, err := r.get(ctx, namespace, service)
	if err != nil {
		return "", err
	}

	return svc.Spec.Selector[revision.LabelRevision], nil
}

// --- internals ---

func (r *Router) routeService(ctx context.Context, namespace, rollout, service, hash string) error {
	svc, err := r.get(ctx, namespace, service)
	if err != nil {
		return err
	}

	selector := Selector(svc.Spec.Selector, rollout, hash)
	if maps.Equal(selector, svc.Spec.Selector) {
		return nil
	}

	svc.Spec.Selector = selector

	_, err = r.clientset.CoreV1().Services(namespace).Update(ctx, svc, metav1.UpdateOptions{})
	if err != nil {
		return fmt.Errorf("route service %s/%s to %q: %w", namespace, service, hash, err)
	}

	return nil
}

func (r *Router) get(ctx context.Context, namespace, service string) (*corev1.Service, error) {
	svc, err := r.clientset.CoreV1().Services(namespace).Get(ctx, service, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrServiceNotFound, namespace, service)
		}

		return nil, fmt.Errorf("get service %s/%s: %w", namespace, service, err)
	}

	return svc, nil
}

// Selector returns a copy of selector that selects the rollout's revision hash,
// or all of its revisions for AllRevisions.
func Selector(selector map[string]string, rollout, hash string) map[string]string {
	out := maps.Clone(selector)
	if out == nil {
		out = make(map[string]string, 2) //nolint:mnd // rollout and revision keys
	}

	out[revision.LabelRollout] = rollout

	if hash == AllRevisions {
		delete(out, revision.LabelRevision)
	} else {
		out[revision.LabelRevision] = hash
	}

	return out
}
