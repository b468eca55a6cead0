// Package store reads and writes Rollout resources through the dynamic client.
package store

import (
	"context"
	"errors"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/util/retry"
)

// ErrRolloutNotFound is returned when a rollout does not exist.
var ErrRolloutNotFound = errors.New("rollout not found")

// Store provides typed access to Rollout resources.
type Store struct {
	client dynamic.Interface
}

// New creates a Store backed by the given dynamic client.
func New(client dynamic.Interface) *Store {
	return &Store{client: client}
}

func (s *Store) resource(namespace string) dynamic.ResourceInterface {
	if namespace == "" {
		return s.client.Resource(v1alpha1.GroupVersionResource)
	}

	return s.client.Resource(v1alpha1.GroupVersionResource).Namespace(namespace)
}

// Get returns a rollout. A missing rollout yields ErrRolloutNotFound.
func (s *Store) Get(ctx context.Context, namespace, name string) (*v1alpha1.Rollout, error) {
	obj, err := s.resource(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, wrapError("get", namespace, name, err)
	}

	return decode(obj)
}

// List returns the rollouts in namespace, or in every namespace when namespace is empty.
func (s *Store) List(ctx context.Context, namespace string) ([]v1alpha1.Rollout, error) {
	list, err := s.resource(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list rollouts: %w", err)
	}

	rollouts := make([]v1alpha1.Rollout, 0, len(list.Items))

	for i := range list.Items {
		rollout, err := decode(&list.Items[i])
		if err != nil {
			return nil, err
		}

		rollouts = append(rollouts, *rollout)
	}

	return rollouts, nil
}

// Create creates a rollout.
func (s *Store) Create(ctx context.Context, rollout *v1alpha1.Rollout) (*v1alpha1.Rollout, error) {
	obj, err := v1alpha1.ToUnstructured(rollout)
	if err != nil {
		return nil, fmt.Errorf("encode rollout %s/%s: %w", rollout.Namespace, rollout.Name, err)
	}

	created, err := s.resource(rollout.Namespace).Create(ctx, obj, metav1.CreateOptions{})
	if err != nil {
		return nil, wrapError("create", rollout.Namespace, rollout.Name, err)
	}

	return decode(created)
}

// Update writes the rollout's metadata and spec. The resource version must match.
func (s *Store) Update(ctx context.Context, rollout *v1alpha1.Rollout) (*v1alpha1.Rollout, error) {
	obj, err := v1alpha1.ToUnstructured(rollout)
	if err != nil {
		return nil, fmt.Errorf("encode rollout %s/%s: %w", rollout.Namespace, rollout.Name, err)
	}

	updated, err := s.resource(rollout.Namespace).Update(ctx, obj, metav1.UpdateOptions{})
	if err != nil {
		return nil, wrapError("update", rollout.Namespace, rollout.Name, err)
	}

	return decode(updated)
}

// UpdateStatus writes the rollout's status subresource. The resource version must match.
func (s *Store) UpdateStatus(ctx context.Context, rollout *v1alpha1.Rollout) (*v1alpha1.Rollout, error) {
	obj, err := v1alpha1.ToUnstructured(rollout)
	if err != nil {
		return nil, fmt.Errorf("encode rollout %s/%s: %w", rollout.Namespace, rollout.Name, err)
	}

	updated, err := s.resource(rollout.Namespace).UpdateStatus(ctx, obj, metav1.UpdateOptions{})
	if err != nil {
		return nil, wrapError("update status of", rollout.Namespace, rollout.Name, err)
	}

	return decode(updated)
}

// Delete removes a rollout. Its revisions are garbage collected through their
// owner references.
func (s *Store) Delete(ctx context.Context, namespace, name string) error {
	err := s.resource(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return wrapError("delete", namespace, name, err)
	}

	return nil
}

// Mutate applies fn to the latest rollout and writes its metadata and spec back,
// retrying on conflicts.
func (s *Store) Mutate(
	ctx context.Context,
	namespace, name string,
	mutate func(*v1alpha1.Rollout) error,
) (*v1alpha1.Rollout, error) {
	return s.mutate(ctx, namespace, name, mutate, s.Update)
}

// MutateStatus applies fn to the latest rollout and writes its status back,
// retrying on conflicts.
func (s *Store) MutateStatus(
	ctx context.Context,
	namespace, name string,
	mutate func(*v1alpha1.Rollout) error,
) (*v1alpha1.Rollout, error) {
	return s.mutate(ctx, namespace, name, mutate, s.UpdateStatus)
}

// Apply creates the rollout or replaces the spec, labels and annotations of an
// existing one while keeping its status. It reports whether the rollout was created.
func (s *Store) Apply(ctx context.Context, rollout *v1alpha1.Rollout) (*v1alpha1.Rollout, bool, error) {
	_, err := s.Get(ctx, rollout.Namespace, rollout.Name)
	if errors.Is(err, ErrRolloutNotFound) {
		created, err := s.Create(ctx, rollout)

		return created, err == nil, err
	}

	if err != nil {
		return nil, false, err
	}

	updated, err := s.Mutate(ctx, rollout.Namespace, rollout.Name, func(existing *v1alpha1.Rollout) error {
		existing.Labels = rollout.Labels
		existing.Annotations = rollout.Annotations
		existing.Spec = rollout.Spec

		return nil
	})

	return updated, false, err
}

// --- internals ---

func (s *Store) mutate(
	ctx context.Context,
	namespace, name string,
	mutate func(*v1alpha1.Rollout) error,
	write func(context.Context, *v1alpha1.Rollout) (*v1alpha1.Rollout, error),
) (*v1alpha1.Rollout, error) {
	var result *v1alpha1.Rollout

	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		rollout, err := s.Get(ctx, namespace, name)
		if err != nil {
			return err
		}

		err = mutate(rollout)
		if err != nil {
			return err
		}

		result, err = write(ctx, rollout)

		return err
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // errors are wrapped by the store methods
	}

	return result, nil
}

func decode(obj *unstructured.Unstructured) (*v1alpha1.Rollout, error) {
	rollout, err := v1alpha1.FromUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("decode rollout %s/%s: %w", obj.GetNamespace(), obj.GetName(), err)
	}

	return rollout, nil
}

func wrapError(verb, namespace, name string, err error) error {
	if apierrors.IsNotFound(err) {
		return fmt.Errorf("%w: %s/%s", ErrRolloutNotFound, namespace, name)
	}

	return fmt.Errorf("%s rollout %s/%s: %w", verb, namespace, name, err)
}
