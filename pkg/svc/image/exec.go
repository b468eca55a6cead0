package image

import (
	"bytes"
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

// ContainerExecutor runs commands inside node containers.
type ContainerExecutor struct {
	daemon Daemon
}

// NewContainerExecutor creates a new container executor.
func NewContainerExecutor(daemon Daemon) *ContainerExecutor {
	return &ContainerExecutor{daemon: daemon}
}

// ExecInContainer executes a command inside a container and returns stdout.
func (e *ContainerExecutor) ExecInContainer(
	ctx context.Context,
	containerName string,
	cmd []string,
) (string, error) {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := e.daemon.ContainerExecCreate(ctx, containerName, execConfig)
	if err != nil {
		return "", fmt.Errorf("failed to create exec: %w", err)
	}

	resp, err := e.daemon.ContainerExecAttach(ctx, execID.ID, container.ExecStartOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer

	_, _ = stdcopy.StdCopy(&stdout, &stderr, resp.Reader)

	inspectResp, err := e.daemon.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect exec: %w", err)
	}

	if inspectResp.ExitCode != 0 {
		return "", fmt.Errorf(
			"%w on %s with exit code %d: %s",
			ErrExecFailed,
			containerName,
			inspectResp.ExitCode,
			stderr.String(),
		)
	}

	return stdout.String(), nil
}
