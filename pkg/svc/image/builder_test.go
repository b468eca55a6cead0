package image_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devantler-tech/rollctl/pkg/svc/image"
	"github.com/docker/docker/api/types/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeContext(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return dir
}

func archiveEntries(t *testing.T, reader io.ReadCloser) []string {
	t.Helper()

	defer func() { _ = reader.Close() }()

	var names []string

	tarReader := tar.NewReader(reader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return names
		}

		require.NoError(t, err)

		names = append(names, strings.TrimSuffix(header.Name, "/"))
	}
}

func TestContextArchiveHonoursDockerignore(t *testing.T) {
	t.Parallel()

	dir := writeContext(t, map[string]string{
		"Dockerfile":          "FROM scratch\n",
		"main.go":             "package main\n",
		"secret.env":          "TOKEN=x\n",
		"node_modules/pkg.js": "x\n",
		".dockerignore":       "*.env\nnode_modules\nDockerfile\n.dockerignore\n",
	})

	reader, err := image.ContextArchive(dir, image.DefaultDockerfile)
	require.NoError(t, err)

	entries := archiveEntries(t, reader)

	assert.Contains(t, entries, "Dockerfile")
	assert.Contains(t, entries, ".dockerignore")
	assert.Contains(t, entries, "main.go")
	assert.NotContains(t, entries, "secret.env")

	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry, "node_modules"), "unexpected entry %s", entry)
	}
}

func TestContextArchiveWithoutDockerignore(t *testing.T) {
	t.Parallel()

	dir := writeContext(t, map[string]string{
		"Dockerfile": "FROM scratch\n",
		"main.go":    "package main\n",
	})

	reader, err := image.ContextArchive(dir, image.DefaultDockerfile)
	require.NoError(t, err)

	entries := archiveEntries(t, reader)

	assert.Contains(t, entries, "Dockerfile")
	assert.Contains(t, entries, "main.go")
}

func TestContextArchiveRejectsFile(t *testing.T) {
	t.Parallel()

	dir := writeContext(t, map[string]string{"Dockerfile": "FROM scratch\n"})

	_, err := image.ContextArchive(filepath.Join(dir, "Dockerfile"), image.DefaultDockerfile)

	require.ErrorIs(t, err, image.ErrContextNotDir)
}

func buildResponse(lines ...string) build.ImageBuildResponse {
	return build.ImageBuildResponse{
		Body: io.NopCloser(strings.NewReader(strings.Join(lines, "\n") + "\n")),
	}
}

func TestBuildStreamsOutput(t *testing.T) {
	t.Parallel()

	dir := writeContext(t, map[string]string{"Dockerfile": "FROM scratch\n"})
	daemon := newMockDaemon(t)

	daemon.On("ImageBuild", mock.Anything, mock.Anything, mock.MatchedBy(
		func(opts build.ImageBuildOptions) bool {
			return opts.Dockerfile == "Dockerfile" &&
				len(opts.Tags) == 1 && opts.Tags[0] == "demo:v1" &&
				opts.BuildArgs["VERSION"] != nil && *opts.BuildArgs["VERSION"] == "1.0.0"
		},
	)).Return(buildResponse(
		`{"stream":"Step 1/1 : FROM scratch\n"}`,
		`{"stream":"Successfully tagged demo:v1\n"}`,
	), nil)

	var out bytes.Buffer

	err := image.NewBuilder(daemon).Build(context.Background(), image.BuildOptions{
		ContextDir: dir,
		Tags:       []string{"demo:v1"},
		BuildArgs:  map[string]string{"VERSION": "1.0.0"},
		Output:     &out,
	})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Step 1/1 : FROM scratch")
	assert.Contains(t, out.String(), "Successfully tagged demo:v1")
}

func TestBuildReportsDaemonError(t *testing.T) {
	t.Parallel()

	dir := writeContext(t, map[string]string{"Dockerfile": "FROM scratch\nRUN false\n"})
	daemon := newMockDaemon(t)

	daemon.On("ImageBuild", mock.Anything, mock.Anything, mock.Anything).Return(buildResponse(
		`{"stream":"Step 2/2 : RUN false\n"}`,
		`{"errorDetail":{"code":1,"message":"returned a non-zero code: 1"},"error":"returned a non-zero code: 1"}`,
	), nil)

	err := image.NewBuilder(daemon).Build(context.Background(), image.BuildOptions{
		ContextDir: dir,
		Tags:       []string{"demo:v1"},
	})

	require.ErrorIs(t, err, image.ErrBuildFailed)
	assert.Contains(t, err.Error(), "non-zero code")
}
