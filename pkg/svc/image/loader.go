package image

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/docker/docker/api/types/container"
)

// nodeArchiveDir is where archives are staged inside node containers.
const nodeArchiveDir = "/tmp"

// NodeLister lists the node containers of a cluster.
type NodeLister interface {
	ListNodes(ctx context.Context, clusterName string) ([]string, error)
}

// LoadOptions configures an image load.
type LoadOptions struct {
	Cluster string
	Images  []string
	// Writer receives per-node progress. Nil discards it.
	Writer io.Writer
	// Concurrency bounds parallel node loads. Zero loads every node at once.
	Concurrency int
}

// Loader imports images from the local daemon into kind node containerd.
type Loader struct {
	daemon   Daemon
	nodes    NodeLister
	executor *ContainerExecutor
}

// NewLoader creates a new image loader.
func NewLoader(daemon Daemon, nodes NodeLister) *Loader {
	return &Loader{
		daemon:   daemon,
		nodes:    nodes,
		executor: NewContainerExecutor(daemon),
	}
}

// Load saves the images once and imports the archive on every node in parallel.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) error {
	if len(opts.Images) == 0 {
		return ErrNoImages
	}

	nodes, err := l.nodes.ListNodes(ctx, opts.Cluster)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	if len(nodes) == 0 {
		return fmt.Errorf("%w: %s", ErrNoNodes, opts.Cluster)
	}

	archivePath, err := l.saveImages(ctx, opts.Images)
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(archivePath) }()

	writer := opts.Writer
	if writer == nil {
		writer = io.Discard
	}

	tasks := make([]notify.ProgressTask, 0, len(nodes))
	for _, node := range nodes {
		tasks = append(tasks, notify.ProgressTask{
			Name: node,
			Fn: func(ctx context.Context) error {
				return l.loadOnNode(ctx, node, archivePath)
			},
		})
	}

	group := notify.NewProgressGroup(
		"Load "+strings.Join(opts.Images, ", "),
		"🚚",
		writer,
		notify.WithLabels(notify.LoadingLabels()),
		notify.WithConcurrency(opts.Concurrency),
	)

	//nolint:wrapcheck // task errors already carry the node name
	return group.Run(ctx, tasks...)
}

// --- internals ---

func (l *Loader) saveImages(ctx context.Context, images []string) (string, error) {
	reader, err := l.daemon.ImageSave(ctx, images)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrImageNotFound, strings.Join(images, ", "))
		}

		return "", fmt.Errorf("failed to save images: %w", err)
	}

	defer func() { _ = reader.Close() }()

	file, err := os.CreateTemp("", "rollctl-images-*.tar")
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	_, copyErr := io.Copy(file, reader)
	closeErr := file.Close()

	if copyErr != nil || closeErr != nil {
		_ = os.Remove(file.Name())

		if copyErr != nil {
			return "", fmt.Errorf("failed to write archive: %w", copyErr)
		}

		return "", fmt.Errorf("failed to close archive: %w", closeErr)
	}

	return file.Name(), nil
}

func (l *Loader) loadOnNode(ctx context.Context, node, archivePath string) error {
	nodePath := path.Join(nodeArchiveDir, "rollctl-"+path.Base(archivePath))

	err := l.copyToContainer(ctx, node, archivePath, nodePath)
	if err != nil {
		return fmt.Errorf("copy archive to %s: %w", node, err)
	}

	defer func() {
		_, _ = l.executor.ExecInContainer(context.WithoutCancel(ctx), node, []string{"rm", "-f", nodePath})
	}()

	_, err = l.executor.ExecInContainer(ctx, node, []string{
		"ctr", "--namespace=k8s.io", "images", "import", "--all-platforms", "--digests", nodePath,
	})
	if err != nil {
		return fmt.Errorf("import images on %s: %w", node, err)
	}

	return nil
}

// copyToContainer streams a single-file tar of srcPath into the container.
func (l *Loader) copyToContainer(ctx context.Context, containerName, srcPath, dstPath string) error {
	srcFile, err := os.Open(srcPath) //nolint:gosec // path is our own temporary archive
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}

	defer func() { _ = srcFile.Close() }()

	fileInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	pipeReader, pipeWriter := io.Pipe()

	go func() {
		tarWriter := tar.NewWriter(pipeWriter)

		writeErr := tarWriter.WriteHeader(&tar.Header{
			Name: path.Base(dstPath),
			Mode: 0o644, //nolint:mnd // Standard file permission
			Size: fileInfo.Size(),
		})
		if writeErr == nil {
			_, writeErr = io.Copy(tarWriter, srcFile)
		}

		if writeErr == nil {
			writeErr = tarWriter.Close()
		}

		_ = pipeWriter.CloseWithError(writeErr)
	}()

	err = l.daemon.CopyToContainer(
		ctx,
		containerName,
		path.Dir(dstPath),
		pipeReader,
		container.CopyToContainerOptions{},
	)

	_ = pipeReader.Close()

	if err != nil {
		return fmt.Errorf("failed to copy to container: %w", err)
	}

	return nil
}
