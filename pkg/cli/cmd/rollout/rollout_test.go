package rollout_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/cli/cmd/rollout"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/k8s"
	"github.com/devantler-tech/rollctl/pkg/k8s/readiness"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"
)

func TestMain(m *testing.M) {
	exitCode := m.Run()

	_, err := snaps.Clean(m, snaps.CleanOpts{Sort: true})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to clean snapshots: " + err.Error() + "\n")

		os.Exit(1)
	}

	os.Exit(exitCode)
}

func canary() *v1alpha1.Rollout {
	ro := v1alpha1.NewRollout("shop", "checkout", "shop/checkout:1.1.0", 4)
	ro.Spec.Strategy.Type = v1alpha1.StrategyCanary
	ro.Spec.Strategy.Canary = &v1alpha1.CanaryStrategy{
		Steps: []v1alpha1.CanaryStep{
			{SetWeight: ptr.To[int32](25)},
			{Pause: &v1alpha1.PauseStep{}},
			{SetWeight: ptr.To[int32](50)},
		},
	}
	ro.Status.Phase = v1alpha1.PhasePaused
	ro.Status.PauseReason = v1alpha1.PauseReasonCanaryStep
	ro.Status.StableRevision = "aaa"
	ro.Status.CurrentRevision = "bbb"
	ro.Status.CanaryWeight = 25
	ro.Status.CurrentStepIndex = ptr.To[int32](1)

	return ro
}

func newClients(t *testing.T, rollouts []*v1alpha1.Rollout, objects ...runtime.Object) *k8s.Clients {
	t.Helper()

	dynamicObjects := make([]runtime.Object, 0, len(rollouts))

	for _, ro := range rollouts {
		obj, err := v1alpha1.ToUnstructured(ro)
		require.NoError(t, err)

		dynamicObjects = append(dynamicObjects, obj)
	}

	return &k8s.Clients{
		Kube: fake.NewClientset(objects...),
		Dynamic: dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
			runtime.NewScheme(),
			map[schema.GroupVersionResource]string{v1alpha1.GroupVersionResource: v1alpha1.ListKind},
			dynamicObjects...,
		),
	}
}

func newRuntime(clients *k8s.Clients) *di.Runtime {
	return di.New(func(i di.Injector) error {
		do.ProvideValue(i, timer.New())
		do.ProvideValue[k8s.ClientsFactory](i, func(string, string) (*k8s.Clients, error) {
			return clients, nil
		})

		return nil
	})
}

func execute(t *testing.T, clients *k8s.Clients, args ...string) (string, error) {
	t.Helper()

	cmd := rollout.NewRolloutCmd(newRuntime(clients))

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestRolloutCmd_Help(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{},
		{"apply", "--help"},
		{"status", "--help"},
		{"history", "--help"},
		{"promote", "--help"},
		{"undo", "--help"},
		{"set-image", "--help"},
	} {
		out, err := execute(t, newClients(t, nil), args...)

		require.NoError(t, err)
		snaps.MatchSnapshot(t, out)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	other := v1alpha1.NewRollout("billing", "invoice", "shop/invoice:2.0.0", 2)
	other.Spec.Strategy.Type = v1alpha1.StrategyBlueGreen
	clients := newClients(t, []*v1alpha1.Rollout{canary(), other})

	out, err := execute(t, clients, "list", "--namespace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "checkout")
	assert.NotContains(t, out, "invoice")

	out, err = execute(t, clients, "list", "--all-namespaces")
	require.NoError(t, err)
	assert.Contains(t, out, "NAMESPACE")
	assert.Contains(t, out, "invoice")

	out, err = execute(t, clients, "list", "--namespace", "empty")
	require.NoError(t, err)
	assert.Contains(t, out, "no rollouts found")
}

func TestGet(t *testing.T) {
	t.Parallel()

	clients := newClients(t, []*v1alpha1.Rollout{canary()})

	out, err := execute(t, clients, "get", "checkout", "--namespace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: Rollout")
	assert.Contains(t, out, "currentRevision: bbb")

	out, err = execute(t, clients, "get", "checkout", "--namespace", "shop", "-o", "json")
	require.NoError(t, err)

	var decoded v1alpha1.Rollout

	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "checkout", decoded.Name)

	_, err = execute(t, clients, "get", "checkout", "--namespace", "shop", "-o", "table")
	require.ErrorIs(t, err, rollout.ErrUnknownOutputFormat)

	_, err = execute(t, clients, "get", "missing", "--namespace", "shop")
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	degraded := canary()
	degraded.Name = "broken"
	degraded.Status.Phase = v1alpha1.PhaseDegraded
	degraded.Status.PauseReason = v1alpha1.PauseReasonNone
	degraded.Status.Message = "progress deadline exceeded"

	clients := newClients(t, []*v1alpha1.Rollout{canary(), degraded})

	out, err := execute(t, clients, "status", "checkout", "--namespace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "Step:       1/3")
	assert.Contains(t, out, "Weight:     25%")

	out, err = execute(t, clients, "status", "broken", "--namespace", "shop")
	require.ErrorIs(t, err, readiness.ErrRolloutDegraded)
	assert.Contains(t, err.Error(), "progress deadline exceeded")
	assert.Contains(t, out, "Degraded")
}

func TestActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    string
		inspect func(t *testing.T, ro *v1alpha1.Rollout)
	}{
		{
			name: "promote",
			args: []string{"promote", "checkout"},
			want: "promoted",
			inspect: func(t *testing.T, ro *v1alpha1.Rollout) {
				t.Helper()
				assert.True(t, ro.Status.Promote)
			},
		},
		{
			name: "promote full",
			args: []string{"promote", "checkout", "--full"},
			want: "promoted",
			inspect: func(t *testing.T, ro *v1alpha1.Rollout) {
				t.Helper()
				assert.True(t, ro.Status.PromoteFull)
			},
		},
		{
			name: "abort",
			args: []string{"abort", "checkout"},
			want: "aborted",
			inspect: func(t *testing.T, ro *v1alpha1.Rollout) {
				t.Helper()
				assert.True(t, ro.Status.Abort)
			},
		},
		{
			name: "pause",
			args: []string{"pause", "checkout"},
			want: "paused",
			inspect: func(t *testing.T, ro *v1alpha1.Rollout) {
				t.Helper()
				assert.True(t, ro.Spec.Paused)
			},
		},
		{
			name: "set-image",
			args: []string{"set-image", "checkout", "checkout=shop/checkout:1.2.0"},
			want: "image updated",
			inspect: func(t *testing.T, ro *v1alpha1.Rollout) {
				t.Helper()
				assert.Equal(t, "shop/checkout:1.2.0", ro.Spec.Template.Spec.Containers[0].Image)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			clients := newClients(t, []*v1alpha1.Rollout{canary()})

			out, err := execute(t, clients, append(tc.args, "--namespace", "shop")...)
			require.NoError(t, err)
			assert.Contains(t, out, tc.want)

			ro, err := store.New(clients.Dynamic).Get(t.Context(), "shop", "checkout")
			require.NoError(t, err)
			tc.inspect(t, ro)
		})
	}
}

func TestSetImage_RequiresImage(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newClients(t, []*v1alpha1.Rollout{canary()}), "set-image", "checkout", "--namespace", "shop")

	require.Error(t, err)
}

func revisionsOf(ro *v1alpha1.Rollout) []runtime.Object {
	stable := revision.Build(ro, "aaa", 1, 3)
	current := revision.Build(ro, "bbb", 2, 1)

	return []runtime.Object{stable, current}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	ro := canary()
	clients := newClients(t, []*v1alpha1.Rollout{ro}, revisionsOf(ro)...)

	out, err := execute(t, clients, "history", "checkout", "--namespace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "REVISION")
	assert.Contains(t, out, "stable")
	assert.Contains(t, out, "current")

	out, err = execute(t, clients, "history", "checkout", "--namespace", "shop", "--events")
	require.NoError(t, err)
	assert.Contains(t, out, "no journal configured")
}

func TestDelete_RemovesRevisions(t *testing.T) {
	t.Parallel()

	ro := canary()
	clients := newClients(t, []*v1alpha1.Rollout{ro}, revisionsOf(ro)...)

	out, err := execute(t, clients, "delete", "checkout", "--namespace", "shop", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "rollout 'checkout' deleted")

	_, err = store.New(clients.Dynamic).Get(t.Context(), "shop", "checkout")
	require.True(t, apierrors.IsNotFound(err))

	deployments, err := clients.Kube.AppsV1().Deployments("shop").List(t.Context(), metav1.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, deployments.Items)
}

func TestApply(t *testing.T) {
	t.Parallel()

	manifest := `apiVersion: rollctl.io/v1alpha1
kind: Rollout
metadata:
  name: web
spec:
  replicas: 2
  strategy:
    type: RollingUpdate
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
        - name: web
          image: nginx:1.27
`
	path := filepath.Join(t.TempDir(), "web.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	clients := newClients(t, nil)

	out, err := execute(t, clients, "apply", "-f", path, "--namespace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "created")

	ro, err := store.New(clients.Dynamic).Get(t.Context(), "shop", "web")
	require.NoError(t, err)
	assert.Equal(t, int32(2), ro.DesiredReplicas())
}

func TestRenderStatus(t *testing.T) {
	t.Parallel()

	ro := canary()
	ro.Status.Message = "waiting for promotion"

	view := rollout.RenderStatus(ro, 80)

	assert.Contains(t, view, "Phase:      Paused (CanaryPauseStep)")
	assert.Contains(t, view, "Images:     checkout=shop/checkout:1.1.0")
	assert.Contains(t, view, "Stable:     aaa")
	assert.NotContains(t, view, "Active:")

	ro.Spec.Strategy.Type = v1alpha1.StrategyBlueGreen
	ro.Spec.Strategy.Canary = nil
	ro.Status.ActiveRevision = "aaa"

	view = rollout.RenderStatus(ro, 80)

	assert.Contains(t, view, "Active:     aaa")
	assert.Contains(t, view, "Preview:    -")
	assert.NotContains(t, view, "Step:")
}
