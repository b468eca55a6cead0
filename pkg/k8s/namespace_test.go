package k8s_test

import (
	"testing"

	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestEnsureNamespace_Creates(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()

	err := k8s.EnsureNamespace(t.Context(), clientset, "rollctl-system", map[string]string{"team": "platform"})
	require.NoError(t, err)

	namespace, err := clientset.CoreV1().Namespaces().Get(t.Context(), "rollctl-system", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "platform", namespace.Labels["team"])
}

func TestEnsureNamespace_MergesLabels(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(&corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: "shop", Labels: map[string]string{"keep": "yes"}},
	})

	err := k8s.EnsureNamespace(t.Context(), clientset, "shop", map[string]string{"team": "web"})
	require.NoError(t, err)

	namespace, err := clientset.CoreV1().Namespaces().Get(t.Context(), "shop", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "yes", namespace.Labels["keep"])
	assert.Equal(t, "web", namespace.Labels["team"])
}

func TestEnsureNamespace_NoLabels(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "shop"}})

	require.NoError(t, k8s.EnsureNamespace(t.Context(), clientset, "shop", nil))
}
