package image_test

import (
	"context"
	"errors"
	"testing"

	"github.com/devantler-tech/rollctl/pkg/svc/image"
	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	errExecCreateFailed  = errors.New("exec create failed")
	errExecAttachFailed  = errors.New("exec attach failed")
	errExecInspectFailed = errors.New("exec inspect failed")
)

func TestExecInContainerSuccessfulCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	daemon := newMockDaemon(t)

	daemon.On("ContainerExecCreate", ctx, "test-container", mock.MatchedBy(func(opts container.ExecOptions) bool {
		return opts.AttachStdout && opts.AttachStderr &&
			len(opts.Cmd) == 2 && opts.Cmd[0] == "echo" && opts.Cmd[1] == "hello"
	})).Return(container.ExecCreateResponse{ID: "exec-id-123"}, nil)

	daemon.On("ContainerExecAttach", ctx, "exec-id-123", container.ExecStartOptions{}).
		Return(streamResponse("hello\n", ""), nil)

	daemon.On("ContainerExecInspect", ctx, "exec-id-123").
		Return(container.ExecInspect{ExitCode: 0}, nil)

	executor := image.NewContainerExecutor(daemon)
	got, err := executor.ExecInContainer(ctx, "test-container", []string{"echo", "hello"})

	require.NoError(t, err)
	assert.Equal(t, "hello\n", got)
}

func TestExecInContainerFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(daemon *mockDaemon)
		wantErr string
		is      error
	}{
		{
			name: "create fails",
			setup: func(daemon *mockDaemon) {
				daemon.On("ContainerExecCreate", mock.Anything, "node", mock.Anything).
					Return(container.ExecCreateResponse{}, errExecCreateFailed)
			},
			wantErr: "failed to create exec",
			is:      errExecCreateFailed,
		},
		{
			name: "attach fails",
			setup: func(daemon *mockDaemon) {
				daemon.On("ContainerExecCreate", mock.Anything, "node", mock.Anything).
					Return(container.ExecCreateResponse{ID: "exec"}, nil)
				daemon.On("ContainerExecAttach", mock.Anything, "exec", container.ExecStartOptions{}).
					Return(dockertypes.HijackedResponse{}, errExecAttachFailed)
			},
			wantErr: "failed to attach to exec",
			is:      errExecAttachFailed,
		},
		{
			name: "inspect fails",
			setup: func(daemon *mockDaemon) {
				daemon.On("ContainerExecCreate", mock.Anything, "node", mock.Anything).
					Return(container.ExecCreateResponse{ID: "exec"}, nil)
				daemon.On("ContainerExecAttach", mock.Anything, "exec", container.ExecStartOptions{}).
					Return(streamResponse("", ""), nil)
				daemon.On("ContainerExecInspect", mock.Anything, "exec").
					Return(container.ExecInspect{}, errExecInspectFailed)
			},
			wantErr: "failed to inspect exec",
			is:      errExecInspectFailed,
		},
		{
			name: "non-zero exit",
			setup: func(daemon *mockDaemon) {
				daemon.On("ContainerExecCreate", mock.Anything, "node", mock.Anything).
					Return(container.ExecCreateResponse{ID: "exec"}, nil)
				daemon.On("ContainerExecAttach", mock.Anything, "exec", container.ExecStartOptions{}).
					Return(streamResponse("", "command failed\n"), nil)
				daemon.On("ContainerExecInspect", mock.Anything, "exec").
					Return(container.ExecInspect{ExitCode: 1}, nil)
			},
			wantErr: "command failed",
			is:      image.ErrExecFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			daemon := newMockDaemon(t)
			tt.setup(daemon)

			_, err := image.NewContainerExecutor(daemon).
				ExecInContainer(context.Background(), "node", []string{"false"})

			require.ErrorIs(t, err, tt.is)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
