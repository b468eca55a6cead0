package image_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/devantler-tech/rollctl/pkg/svc/image"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errListFailed = errors.New("list failed")

type staticNodes struct {
	nodes []string
	err   error
}

func (s staticNodes) ListNodes(context.Context, string) ([]string, error) {
	return s.nodes, s.err
}

// archiveSink records what was copied into each node.
type archiveSink struct {
	mu     sync.Mutex
	copies map[string]string
}

func (s *archiveSink) record(args mock.Arguments) {
	node, _ := args.Get(1).(string)
	content, _ := args.Get(3).(io.Reader)

	tarReader := tar.NewReader(content)

	header, err := tarReader.Next()
	if err != nil {
		return
	}

	body, _ := io.ReadAll(tarReader)
	_, _ = io.Copy(io.Discard, content)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.copies[node] = header.Name + "=" + string(body)
}

func TestLoadImportsOnEveryNode(t *testing.T) {
	t.Parallel()

	nodes := []string{"demo-control-plane", "demo-worker", "demo-worker2"}
	daemon := newMockDaemon(t)
	sink := &archiveSink{copies: map[string]string{}}

	daemon.On("ImageSave", mock.Anything, []string{"demo:v1"}).
		Return(io.NopCloser(strings.NewReader("image-archive")), nil)

	for _, node := range nodes {
		daemon.On("CopyToContainer", mock.Anything, node, "/tmp", mock.Anything, container.CopyToContainerOptions{}).
			Run(sink.record).
			Return(nil).
			Once()
		expectExec(daemon, node, "ctr", "import-"+node, 0, "")
		expectExec(daemon, node, "rm", "rm-"+node, 0, "")
	}

	var out bytes.Buffer

	err := image.NewLoader(daemon, staticNodes{nodes: nodes}).Load(context.Background(), image.LoadOptions{
		Cluster: "demo",
		Images:  []string{"demo:v1"},
		Writer:  &out,
	})
	require.NoError(t, err)

	require.Len(t, sink.copies, len(nodes))

	for _, node := range nodes {
		assert.True(t, strings.HasSuffix(sink.copies[node], "=image-archive"), sink.copies[node])
		assert.Contains(t, out.String(), node)
	}
}

func TestLoadFailsOnImportError(t *testing.T) {
	t.Parallel()

	daemon := newMockDaemon(t)

	daemon.On("ImageSave", mock.Anything, []string{"demo:v1"}).
		Return(io.NopCloser(strings.NewReader("image-archive")), nil)
	daemon.On("CopyToContainer", mock.Anything, "demo-control-plane", "/tmp", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			content, _ := args.Get(3).(io.Reader)
			_, _ = io.Copy(io.Discard, content)
		}).
		Return(nil)
	expectExec(daemon, "demo-control-plane", "ctr", "import", 1, "")
	expectExec(daemon, "demo-control-plane", "rm", "rm", 0, "")

	err := image.NewLoader(daemon, staticNodes{nodes: []string{"demo-control-plane"}}).
		Load(context.Background(), image.LoadOptions{Cluster: "demo", Images: []string{"demo:v1"}})

	require.ErrorIs(t, err, image.ErrExecFailed)
	assert.Contains(t, err.Error(), "demo-control-plane")
}

func TestLoadPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes staticNodes
		opts  image.LoadOptions
		setup func(daemon *mockDaemon)
		want  error
	}{
		{
			name: "no images",
			opts: image.LoadOptions{Cluster: "demo"},
			want: image.ErrNoImages,
		},
		{
			name:  "no nodes",
			nodes: staticNodes{},
			opts:  image.LoadOptions{Cluster: "demo", Images: []string{"demo:v1"}},
			want:  image.ErrNoNodes,
		},
		{
			name:  "list fails",
			nodes: staticNodes{err: errListFailed},
			opts:  image.LoadOptions{Cluster: "demo", Images: []string{"demo:v1"}},
			want:  errListFailed,
		},
		{
			name:  "image missing",
			nodes: staticNodes{nodes: []string{"demo-control-plane"}},
			opts:  image.LoadOptions{Cluster: "demo", Images: []string{"missing:v1"}},
			setup: func(daemon *mockDaemon) {
				daemon.On("ImageSave", mock.Anything, []string{"missing:v1"}).
					Return(nil, cerrdefs.ErrNotFound)
			},
			want: image.ErrImageNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			daemon := newMockDaemon(t)
			if tt.setup != nil {
				tt.setup(daemon)
			}

			err := image.NewLoader(daemon, tt.nodes).Load(context.Background(), tt.opts)

			require.ErrorIs(t, err, tt.want)
		})
	}
}
