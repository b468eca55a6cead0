package revision

import (
	"context"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// Manager creates, scales and deletes revision Deployments.
type Manager struct {
	clientset kubernetes.Interface
}

// NewManager creates a Manager.
func NewManager(clientset kubernetes.Interface) *Manager {
	return &Manager{clientset: clientset}
}

// Ensure makes sure the revision for hash exists and returns it together with the
// rollout's revisions. A new revision starts with initialReplicas.
func (m *Manager) Ensure(
	ctx context.Context,
	rollout *v1alpha1.Rollout,
	hash string,
	initialReplicas int32,
) ([]Revision, error) {
	revisions, err := List(ctx, m.clientset, rollout.Namespace, rollout.Name)
	if err != nil {
		return nil, err
	}

	if _, ok := Find(revisions, hash); ok {
		return revisions, nil
	}

	deployment := Build(rollout, hash, NextNumber(revisions), initialReplicas)

	created, err := m.clientset.AppsV1().Deployments(rollout.Namespace).
		Create(ctx, deployment, metav1.CreateOptions{})
	if err != nil {
		if !apierrors.IsAlreadyExists(err) {
			return nil, fmt.Errorf("create revision %s: %w", deployment.Name, err)
		}

		// Created by a concurrent reconcile; list again to pick it up.
		return List(ctx, m.clientset, rollout.Namespace, rollout.Name)
	}

	return append(revisions, Revision{Hash: hash, Number: Number(created), Deployment: created}), nil
}

// Scale sets the replica count of a revision Deployment.
func (m *Manager) Scale(ctx context.Context, namespace, name string, replicas int32) error {
	patch := fmt.Appendf(nil, `{"spec":{"replicas":%d}}`, replicas)

	_, err := m.clientset.AppsV1().Deployments(namespace).
		Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		return fmt.Errorf("scale revision %s/%s to %d: %w", namespace, name, replicas, err)
	}

	return nil
}

// Delete removes a revision Deployment. A missing Deployment is not an error.
func (m *Manager) Delete(ctx context.Context, namespace, name string) error {
	err := m.clientset.AppsV1().Deployments(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete revision %s/%s: %w", namespace, name, err)
	}

	return nil
}
