package cluster_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/devantler-tech/rollctl/pkg/cli/cmd/cluster"
	"github.com/devantler-tech/rollctl/pkg/di"
	clusterprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster"
	clustererrors "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/errors"
	kindprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/kind"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errCreate = errors.New("docker not running")

func TestMain(m *testing.M) {
	exitCode := m.Run()

	_, err := snaps.Clean(m, snaps.CleanOpts{Sort: true})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to clean snapshots: " + err.Error() + "\n")

		os.Exit(1)
	}

	os.Exit(exitCode)
}

type mockProvisioner struct {
	mock.Mock
}

func (m *mockProvisioner) Create(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockProvisioner) Delete(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockProvisioner) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	names, _ := args.Get(0).([]string)

	return names, args.Error(1)
}

func (m *mockProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)

	return args.Bool(0), args.Error(1)
}

func (m *mockProvisioner) ListNodes(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)

	names, _ := args.Get(0).([]string)

	return names, args.Error(1)
}

type recordingFactory struct {
	provisioner clusterprovisioner.ClusterProvisioner
	opts        kindprovisioner.Options
}

func (f *recordingFactory) Create(opts kindprovisioner.Options, _ io.Writer) (clusterprovisioner.ClusterProvisioner, error) {
	f.opts = opts

	return f.provisioner, nil
}

func newRuntime(factory clusterprovisioner.Factory) *di.Runtime {
	return di.New(func(i di.Injector) error {
		do.ProvideValue(i, timer.New())
		do.ProvideValue[clusterprovisioner.Factory](i, factory)

		return nil
	})
}

func TestClusterCmd_ShowsHelp(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	cmd := cluster.NewClusterCmd(newRuntime(&recordingFactory{}))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	snaps.MatchSnapshot(t, out.String())
}

func TestCreate_PassesOptionsToProvisioner(t *testing.T) {
	t.Parallel()

	provisioner := &mockProvisioner{}
	provisioner.On("Create", mock.Anything, "demo").Return(nil)

	factory := &recordingFactory{provisioner: provisioner}

	var out bytes.Buffer

	cmd := cluster.NewClusterCmd(newRuntime(factory))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"create",
		"--name", "demo",
		"--workers", "2",
		"--kubeconfig", "/tmp/rollctl-kubeconfig",
		"--wait-for-ready", "0s",
	})

	require.NoError(t, cmd.Execute())

	provisioner.AssertExpectations(t)
	assert.Equal(t, "demo", factory.opts.Name)
	assert.Equal(t, 2, factory.opts.Workers)
	assert.Equal(t, "/tmp/rollctl-kubeconfig", factory.opts.KubeconfigPath)
	assert.Zero(t, factory.opts.WaitForReady)
	assert.Contains(t, out.String(), "cluster 'demo' created")
}

func TestCreate_WrapsProvisionerError(t *testing.T) {
	t.Parallel()

	provisioner := &mockProvisioner{}
	provisioner.On("Create", mock.Anything, "rollctl").Return(errCreate)

	var out bytes.Buffer

	cmd := cluster.NewClusterCmd(newRuntime(&recordingFactory{provisioner: provisioner}))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"create"})

	err := cmd.Execute()
	require.ErrorIs(t, err, errCreate)
	assert.Contains(t, err.Error(), "create cluster")
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("deletes an existing cluster", func(t *testing.T) {
		t.Parallel()

		provisioner := &mockProvisioner{}
		provisioner.On("Exists", mock.Anything, "demo").Return(true, nil)
		provisioner.On("Delete", mock.Anything, "demo").Return(nil)

		var out bytes.Buffer

		cmd := cluster.NewClusterCmd(newRuntime(&recordingFactory{provisioner: provisioner}))
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"delete", "--name", "demo", "--force"})

		require.NoError(t, cmd.Execute())
		provisioner.AssertExpectations(t)
		assert.Contains(t, out.String(), "cluster 'demo' deleted")
	})

	t.Run("missing cluster", func(t *testing.T) {
		t.Parallel()

		provisioner := &mockProvisioner{}
		provisioner.On("Exists", mock.Anything, "demo").Return(false, nil)

		var out bytes.Buffer

		cmd := cluster.NewClusterCmd(newRuntime(&recordingFactory{provisioner: provisioner}))
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"delete", "--name", "demo", "--force"})

		require.ErrorIs(t, cmd.Execute(), clustererrors.ErrClusterNotFound)
		provisioner.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		clusters []string
		want     []string
	}{
		{name: "prints every cluster", clusters: []string{"demo", "rollctl"}, want: []string{"demo\n", "rollctl\n"}},
		{name: "reports none", clusters: nil, want: []string{"no clusters found"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			provisioner := &mockProvisioner{}
			provisioner.On("List", mock.Anything).Return(tc.clusters, nil)

			var out bytes.Buffer

			cmd := cluster.NewClusterCmd(newRuntime(&recordingFactory{provisioner: provisioner}))
			cmd.SetOut(&out)
			cmd.SetArgs([]string{"list"})

			require.NoError(t, cmd.Execute())

			for _, want := range tc.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
