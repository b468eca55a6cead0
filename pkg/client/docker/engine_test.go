package docker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/devantler-tech/rollctl/pkg/client/docker"
	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) (types.Ping, error) {
	return types.Ping{APIVersion: "1.51"}, s.err
}

func TestGetDockerClient(t *testing.T) {
	t.Parallel()

	client, err := docker.GetDockerClient()
	if err != nil {
		assert.Nil(t, client, "expected nil client on error")

		return
	}

	assert.NotNil(t, client)
}

func TestGetDockerClient_InvalidEnv(t *testing.T) {
	t.Setenv("DOCKER_HOST", "://")
	t.Setenv("DOCKER_TLS_VERIFY", "")
	t.Setenv("DOCKER_CERT_PATH", "")

	client, err := docker.GetDockerClient()

	require.Error(t, err)
	assert.Nil(t, client)
}

func TestEnsureAvailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pinger docker.Pinger
		want   error
	}{
		{name: "reachable", pinger: stubPinger{}},
		{name: "unreachable", pinger: stubPinger{err: errRefused}, want: docker.ErrDaemonUnavailable},
		{name: "nil client", pinger: nil, want: docker.ErrAPIClientNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := docker.EnsureAvailable(context.Background(), tt.pinger)
			if tt.want == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.want)
		})
	}
}
