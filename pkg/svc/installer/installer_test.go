package installer_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/devantler-tech/rollctl/pkg/svc/installer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsfake "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset/fake"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

// newClients returns fake clients whose CRDs become Established and whose
// Deployments become ready as soon as they are written.
func newClients(t *testing.T, objects ...runtime.Object) *k8s.Clients {
	t.Helper()

	kube := fake.NewClientset()
	ext := apiextensionsfake.NewSimpleClientset(objects...)

	establish := func(action k8stesting.Action) (bool, runtime.Object, error) {
		withObject, ok := action.(k8stesting.CreateAction)
		if !ok {
			return false, nil, nil
		}

		if crd, ok := withObject.GetObject().(*apiextensionsv1.CustomResourceDefinition); ok {
			crd.Status.Conditions = []apiextensionsv1.CustomResourceDefinitionCondition{
				{Type: apiextensionsv1.Established, Status: apiextensionsv1.ConditionTrue},
			}
		}

		return false, nil, nil
	}
	ext.PrependReactor("create", "customresourcedefinitions", establish)
	ext.PrependReactor("update", "customresourcedefinitions", establish)

	ready := func(action k8stesting.Action) (bool, runtime.Object, error) {
		deployment, ok := action.(k8stesting.CreateAction).GetObject().(*appsv1.Deployment)
		if ok && deployment.Spec.Replicas != nil {
			replicas := *deployment.Spec.Replicas
			deployment.Status.Replicas = replicas
			deployment.Status.UpdatedReplicas = replicas
			deployment.Status.AvailableReplicas = replicas
			deployment.Status.ReadyReplicas = replicas
		}

		return false, nil, nil
	}
	kube.PrependReactor("create", "deployments", ready)
	kube.PrependReactor("update", "deployments", ready)

	return &k8s.Clients{Kube: kube, Extensions: ext}
}

func TestInstall_CRDOnly(t *testing.T) {
	t.Parallel()

	clients := newClients(t)

	var out bytes.Buffer

	inst := installer.NewControllerInstaller(clients, installer.Options{
		Version: "v1.2.0",
		Timeout: 5 * time.Second,
		Writer:  &out,
	})

	require.NoError(t, inst.Install(t.Context()))
	assert.Contains(t, out.String(), "rollout CRD installed")

	version, err := inst.InstalledVersion(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", version)

	_, err = clients.Kube.AppsV1().Deployments(installer.DefaultNamespace).
		Get(t.Context(), installer.ControllerName, metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))

	images, err := inst.Images(t.Context())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestInstallCRD_SkipsWhenUpToDate(t *testing.T) {
	t.Parallel()

	clients := newClients(t, installer.RolloutCRD("v1.3.0"))

	installed, err := installer.NewControllerInstaller(clients, installer.Options{Version: "v1.2.0"}).
		InstallCRD(t.Context())
	require.NoError(t, err)
	assert.False(t, installed)

	installed, err = installer.NewControllerInstaller(clients, installer.Options{
		Version: "v1.2.0",
		Force:   true,
		Timeout: 5 * time.Second,
	}).InstallCRD(t.Context())
	require.NoError(t, err)
	assert.True(t, installed)

	crd, err := clients.Extensions.ApiextensionsV1().CustomResourceDefinitions().
		Get(t.Context(), installer.CRDName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", crd.Annotations[installer.AnnotationVersion])
}

func TestInstall_DeployAndUninstall(t *testing.T) {
	t.Parallel()

	clients := newClients(t)
	inst := installer.NewControllerInstaller(clients, installer.Options{
		Version: "v1.2.0",
		Deploy:  true,
		Image:   "ghcr.io/devantler-tech/rollctl:v1.2.0",
		Timeout: 5 * time.Second,
	})

	require.NoError(t, inst.Install(t.Context()))

	deployment, err := clients.Kube.AppsV1().Deployments(installer.DefaultNamespace).
		Get(t.Context(), installer.ControllerName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/devantler-tech/rollctl:v1.2.0", deployment.Spec.Template.Spec.Containers[0].Image)
	assert.Contains(t, deployment.Spec.Template.Spec.Containers[0].Args, "--leader-election")

	binding, err := clients.Kube.RbacV1().ClusterRoleBindings().
		Get(t.Context(), installer.ControllerName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, installer.DefaultNamespace, binding.Subjects[0].Namespace)

	images, err := inst.Images(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"ghcr.io/devantler-tech/rollctl:v1.2.0"}, images)

	require.NoError(t, inst.Install(t.Context()), "installing twice updates in place")

	require.NoError(t, inst.Uninstall(t.Context()))

	_, err = clients.Kube.CoreV1().Namespaces().Get(t.Context(), installer.DefaultNamespace, metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))

	_, err = clients.Extensions.ApiextensionsV1().CustomResourceDefinitions().
		Get(t.Context(), installer.CRDName, metav1.GetOptions{})
	assert.True(t, apierrors.IsNotFound(err))

	require.NoError(t, inst.Uninstall(t.Context()), "uninstalling twice is a no-op")
}

func TestIsNewer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		version   string
		installed string
		want      bool
	}{
		{name: "newer", version: "v1.3.0", installed: "v1.2.9", want: true},
		{name: "same", version: "v1.3.0", installed: "1.3.0", want: false},
		{name: "older", version: "v1.2.0", installed: "v1.3.0", want: false},
		{name: "dev build", version: "dev", installed: "v1.3.0", want: true},
		{name: "unstamped", version: "v1.0.0", installed: "", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, installer.IsNewer(tc.version, tc.installed))
		})
	}
}

func TestGetInstallTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, installer.DefaultInstallTimeout, installer.GetInstallTimeout(0))
	assert.Equal(t, time.Minute, installer.GetInstallTimeout(time.Minute))
}

func TestRolloutCRD(t *testing.T) {
	t.Parallel()

	crd := installer.RolloutCRD("v1.0.0")

	assert.Equal(t, "rollouts.rollctl.io", crd.Name)
	require.Len(t, crd.Spec.Versions, 1)
	assert.NotNil(t, crd.Spec.Versions[0].Subresources.Status)
	assert.Equal(t, apiextensionsv1.NamespaceScoped, crd.Spec.Scope)
}

func TestDefaultImage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ghcr.io/devantler-tech/rollctl:v1.2.0", installer.DefaultImage("v1.2.0"))
	assert.Equal(t, "ghcr.io/devantler-tech/rollctl:latest", installer.DefaultImage("dev"))
	assert.Equal(t, "ghcr.io/devantler-tech/rollctl:latest", installer.DefaultImage(""))
}
