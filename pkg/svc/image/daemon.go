package image

import (
	"context"
	"io"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Daemon is the part of the Docker API the image service drives.
// client.APIClient satisfies it.
type Daemon interface {
	ImageBuild(
		ctx context.Context,
		buildContext io.Reader,
		options build.ImageBuildOptions,
	) (build.ImageBuildResponse, error)
	ImageSave(
		ctx context.Context,
		images []string,
		saveOpts ...client.ImageSaveOption,
	) (io.ReadCloser, error)
	CopyToContainer(
		ctx context.Context,
		containerID, dstPath string,
		content io.Reader,
		options container.CopyToContainerOptions,
	) error
	ContainerExecCreate(
		ctx context.Context,
		containerName string,
		options container.ExecOptions,
	) (container.ExecCreateResponse, error)
	ContainerExecAttach(
		ctx context.Context,
		execID string,
		config container.ExecStartOptions,
	) (dockertypes.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

var _ Daemon = (client.APIClient)(nil)
