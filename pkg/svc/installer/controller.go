package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/devantler-tech/rollctl/pkg/k8s/readiness"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// DefaultNamespace is the namespace the controller is deployed to.
const DefaultNamespace = "rollctl-system"

// Options configures ControllerInstaller.
type Options struct {
	// Version is the rollctl version stamped on the CRD.
	Version string
	// Force reinstalls the CRD even when the installed version is newer.
	Force bool
	// Deploy also runs the controller in the cluster.
	Deploy    bool
	Namespace string
	// Image is the controller image used with Deploy.
	Image   string
	Timeout time.Duration
	// Writer receives progress messages. Nil discards them.
	Writer io.Writer
}

// ImageRepository is the repository controller images are published to.
const ImageRepository = "ghcr.io/devantler-tech/rollctl"

// DefaultImage returns the controller image released with version. Builds
// without a semantic version use the latest image.
func DefaultImage(version string) string {
	if _, err := semver.NewVersion(version); err != nil {
		return ImageRepository + ":latest"
	}

	return ImageRepository + ":" + version
}

// ControllerInstaller installs the Rollout CRD and optionally the controller.
type ControllerInstaller struct {
	clients *k8s.Clients
	opts    Options
}

// NewControllerInstaller creates a ControllerInstaller.
func NewControllerInstaller(clients *k8s.Clients, opts Options) *ControllerInstaller {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	if opts.Writer == nil {
		opts.Writer = io.Discard
	}

	if opts.Image == "" {
		opts.Image = DefaultImage(opts.Version)
	}

	opts.Timeout = GetInstallTimeout(opts.Timeout)

	return &ControllerInstaller{clients: clients, opts: opts}
}

// Install installs the CRD and, with Deploy, the controller.
func (i *ControllerInstaller) Install(ctx context.Context) error {
	installed, err := i.InstallCRD(ctx)
	if err != nil {
		return err
	}

	if installed {
		notify.Successf(i.opts.Writer, "rollout CRD installed (%s)", i.opts.Version)
	} else {
		notify.Infof(i.opts.Writer, "rollout CRD is up to date, use --force to reinstall")
	}

	if !i.opts.Deploy {
		return nil
	}

	err = i.deployController(ctx)
	if err != nil {
		return err
	}

	notify.Successf(i.opts.Writer, "controller running in namespace %s", i.opts.Namespace)

	return nil
}

// InstallCRD creates or updates the Rollout CRD and waits until it is
// Established. It reports false when the installed CRD is already at least
// as new as this version and Force is not set.
func (i *ControllerInstaller) InstallCRD(ctx context.Context) (bool, error) {
	crds := i.clients.Extensions.ApiextensionsV1().CustomResourceDefinitions()
	desired := RolloutCRD(i.opts.Version)

	existing, err := crds.Get(ctx, CRDName, metav1.GetOptions{})

	switch {
	case apierrors.IsNotFound(err):
		_, err = crds.Create(ctx, desired, metav1.CreateOptions{})
		if err != nil {
			return false, fmt.Errorf("create crd %s: %w", CRDName, err)
		}
	case err != nil:
		return false, fmt.Errorf("get crd %s: %w", CRDName, err)
	default:
		if !i.opts.Force && !IsNewer(i.opts.Version, crdVersion(existing)) {
			return false, nil
		}

		desired.ResourceVersion = existing.ResourceVersion

		_, err = crds.Update(ctx, desired, metav1.UpdateOptions{})
		if err != nil {
			return false, fmt.Errorf("update crd %s: %w", CRDName, err)
		}
	}

	err = readiness.WaitForCRDEstablished(ctx, i.clients.Extensions, CRDName, i.opts.Timeout)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCRDNotEstablished, err)
	}

	return true, nil
}

// Uninstall removes the controller, its RBAC and the CRD. Deleting the CRD
// deletes every Rollout, and their revisions with them.
func (i *ControllerInstaller) Uninstall(ctx context.Context) error {
	namespace := i.opts.Namespace
	kube := i.clients.Kube

	deletes := []struct {
		kind string
		del  func() error
	}{
		{"deployment", func() error {
			return kube.AppsV1().Deployments(namespace).Delete(ctx, ControllerName, metav1.DeleteOptions{})
		}},
		{"clusterrolebinding", func() error {
			return kube.RbacV1().ClusterRoleBindings().Delete(ctx, ControllerName, metav1.DeleteOptions{})
		}},
		{"clusterrole", func() error {
			return kube.RbacV1().ClusterRoles().Delete(ctx, ControllerName, metav1.DeleteOptions{})
		}},
		{"serviceaccount", func() error {
			return kube.CoreV1().ServiceAccounts(namespace).Delete(ctx, ControllerName, metav1.DeleteOptions{})
		}},
		{"crd", func() error {
			return i.clients.Extensions.ApiextensionsV1().CustomResourceDefinitions().
				Delete(ctx, CRDName, metav1.DeleteOptions{})
		}},
	}

	var errs []error

	for _, d := range deletes {
		err := d.del()
		if err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("delete %s: %w", d.kind, err))
		}
	}

	err := i.deleteManagedNamespace(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// InstalledVersion returns the rollctl version of the installed CRD, or an empty
// string when the CRD is not installed.
func (i *ControllerInstaller) InstalledVersion(ctx context.Context) (string, error) {
	crd, err := i.clients.Extensions.ApiextensionsV1().CustomResourceDefinitions().
		Get(ctx, CRDName, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("get crd %s: %w", CRDName, err)
	}

	return crdVersion(crd), nil
}

// Images returns the controller image when the controller is deployed.
func (i *ControllerInstaller) Images(context.Context) ([]string, error) {
	if !i.opts.Deploy {
		return nil, nil
	}

	return []string{i.opts.Image}, nil
}

// IsNewer reports whether version should replace installed. Versions that are
// not semantic versions, such as development builds, always replace.
func IsNewer(version, installed string) bool {
	want, err := semver.NewVersion(version)
	if err != nil {
		return true
	}

	have, err := semver.NewVersion(installed)
	if err != nil {
		return true
	}

	return want.GreaterThan(have)
}

// --- internals ---

func (i *ControllerInstaller) deployController(ctx context.Context) error {
	kube := i.clients.Kube
	namespace := i.opts.Namespace

	err := k8s.EnsureNamespace(ctx, kube, namespace, managedLabels())
	if err != nil {
		return fmt.Errorf("ensure namespace %s: %w", namespace, err)
	}

	err = createOrUpdate(
		serviceAccount(namespace),
		func(obj *corev1.ServiceAccount) error {
			_, err := kube.CoreV1().ServiceAccounts(namespace).Create(ctx, obj, metav1.CreateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
		func(obj *corev1.ServiceAccount) error {
			_, err := kube.CoreV1().ServiceAccounts(namespace).Update(ctx, obj, metav1.UpdateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
	)
	if err != nil {
		return err
	}

	err = createOrUpdate(
		clusterRole(),
		func(obj *rbacv1.ClusterRole) error {
			_, err := kube.RbacV1().ClusterRoles().Create(ctx, obj, metav1.CreateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
		func(obj *rbacv1.ClusterRole) error {
			_, err := kube.RbacV1().ClusterRoles().Update(ctx, obj, metav1.UpdateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
	)
	if err != nil {
		return err
	}

	err = createOrUpdate(
		clusterRoleBinding(namespace),
		func(obj *rbacv1.ClusterRoleBinding) error {
			_, err := kube.RbacV1().ClusterRoleBindings().Create(ctx, obj, metav1.CreateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
		func(obj *rbacv1.ClusterRoleBinding) error {
			_, err := kube.RbacV1().ClusterRoleBindings().Update(ctx, obj, metav1.UpdateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
	)
	if err != nil {
		return err
	}

	err = createOrUpdate(
		controllerDeployment(i.opts),
		func(obj *appsv1.Deployment) error {
			_, err := kube.AppsV1().Deployments(namespace).Create(ctx, obj, metav1.CreateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
		func(obj *appsv1.Deployment) error {
			_, err := kube.AppsV1().Deployments(namespace).Update(ctx, obj, metav1.UpdateOptions{})

			return err //nolint:wrapcheck // wrapped by createOrUpdate
		},
	)
	if err != nil {
		return err
	}

	err = readiness.WaitForMultipleResources(ctx, kube, []readiness.Check{
		{Type: "deployment", Namespace: namespace, Name: ControllerName},
	}, i.opts.Timeout)
	if err != nil {
		return fmt.Errorf("wait for controller %s/%s: %w", namespace, ControllerName, err)
	}

	return nil
}

func createOrUpdate[T interface{ GetName() string }](
	obj T,
	create func(T) error,
	update func(T) error,
) error {
	err := create(obj)
	if err == nil {
		return nil
	}

	if !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create %s: %w", obj.GetName(), err)
	}

	err = update(obj)
	if err != nil {
		return fmt.Errorf("update %s: %w", obj.GetName(), err)
	}

	return nil
}

func (i *ControllerInstaller) deleteManagedNamespace(ctx context.Context) error {
	namespaces := i.clients.Kube.CoreV1().Namespaces()

	namespace, err := namespaces.Get(ctx, i.opts.Namespace, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("get namespace %s: %w", i.opts.Namespace, err)
	}

	if namespace.Labels[LabelManagedBy] != ManagedByValue {
		return nil
	}

	err = namespaces.Delete(ctx, i.opts.Namespace, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete namespace %s: %w", i.opts.Namespace, err)
	}

	return nil
}

// crdVersion returns the rollctl version recorded on an installed CRD.
func crdVersion(crd *apiextensionsv1.CustomResourceDefinition) string {
	return crd.Annotations[AnnotationVersion]
}
