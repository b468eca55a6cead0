package image_test

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/mock"
)

// mockDaemon is a testify mock of image.Daemon.
type mockDaemon struct {
	mock.Mock
}

func newMockDaemon(t *testing.T) *mockDaemon {
	t.Helper()

	daemon := &mockDaemon{}
	daemon.Test(t)
	t.Cleanup(func() { daemon.AssertExpectations(t) })

	return daemon
}

func (m *mockDaemon) ImageBuild(
	ctx context.Context,
	buildContext io.Reader,
	options build.ImageBuildOptions,
) (build.ImageBuildResponse, error) {
	args := m.Called(ctx, buildContext, options)

	resp, _ := args.Get(0).(build.ImageBuildResponse)

	return resp, args.Error(1) //nolint:wrapcheck // mock
}

func (m *mockDaemon) ImageSave(
	ctx context.Context,
	images []string,
	_ ...client.ImageSaveOption,
) (io.ReadCloser, error) {
	args := m.Called(ctx, images)

	reader, _ := args.Get(0).(io.ReadCloser)

	return reader, args.Error(1) //nolint:wrapcheck // mock
}

func (m *mockDaemon) CopyToContainer(
	ctx context.Context,
	containerID, dstPath string,
	content io.Reader,
	options container.CopyToContainerOptions,
) error {
	args := m.Called(ctx, containerID, dstPath, content, options)

	return args.Error(0) //nolint:wrapcheck // mock
}

func (m *mockDaemon) ContainerExecCreate(
	ctx context.Context,
	containerName string,
	options container.ExecOptions,
) (container.ExecCreateResponse, error) {
	args := m.Called(ctx, containerName, options)

	resp, _ := args.Get(0).(container.ExecCreateResponse)

	return resp, args.Error(1) //nolint:wrapcheck // mock
}

func (m *mockDaemon) ContainerExecAttach(
	ctx context.Context,
	execID string,
	config container.ExecStartOptions,
) (dockertypes.HijackedResponse, error) {
	args := m.Called(ctx, execID, config)

	resp, _ := args.Get(0).(dockertypes.HijackedResponse)

	return resp, args.Error(1) //nolint:wrapcheck // mock
}

func (m *mockDaemon) ContainerExecInspect(
	ctx context.Context,
	execID string,
) (container.ExecInspect, error) {
	args := m.Called(ctx, execID)

	resp, _ := args.Get(0).(container.ExecInspect)

	return resp, args.Error(1) //nolint:wrapcheck // mock
}

// mockConn is a minimal net.Conn implementation for testing.
type mockConn struct{}

func (m *mockConn) Read(_ []byte) (int, error)         { return 0, io.EOF }
func (m *mockConn) Write(b []byte) (int, error)        { return len(b), nil }
func (m *mockConn) Close() error                       { return nil }
func (m *mockConn) LocalAddr() net.Addr                { return nil }
func (m *mockConn) RemoteAddr() net.Addr               { return nil }
func (m *mockConn) SetDeadline(_ time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(_ time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(_ time.Time) error { return nil }

// streamResponse wraps stdout and stderr in Docker's multiplexed stream format.
func streamResponse(stdout, stderr string) dockertypes.HijackedResponse {
	var data []byte

	for stream, payload := range map[byte]string{1: stdout, 2: stderr} {
		if payload == "" {
			continue
		}

		header := make([]byte, 8)
		header[0] = stream
		binary.BigEndian.PutUint32(header[4:], uint32(len(payload))) //nolint:gosec // test payloads are small

		data = append(data, header...)
		data = append(data, payload...)
	}

	return dockertypes.HijackedResponse{
		Reader: bufio.NewReader(strings.NewReader(string(data))),
		Conn:   &mockConn{},
	}
}

// expectExec registers a successful or failing exec on containerName whose
// command starts with program.
func expectExec(daemon *mockDaemon, containerName, program, execID string, exitCode int, stdout string) {
	daemon.On("ContainerExecCreate", mock.Anything, containerName, mock.MatchedBy(
		func(opts container.ExecOptions) bool {
			return len(opts.Cmd) > 0 && opts.Cmd[0] == program
		},
	)).Return(container.ExecCreateResponse{ID: execID}, nil).Once()

	daemon.On("ContainerExecAttach", mock.Anything, execID, container.ExecStartOptions{}).
		Return(streamResponse(stdout, ""), nil).Once()

	daemon.On("ContainerExecInspect", mock.Anything, execID).
		Return(container.ExecInspect{ExitCode: exitCode}, nil).Once()
}
