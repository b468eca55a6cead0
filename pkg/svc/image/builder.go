package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/pkg/jsonmessage"
	archive "github.com/moby/go-archive"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"golang.org/x/term"
)

// DefaultDockerfile is the Dockerfile name used when none is given.
const DefaultDockerfile = "Dockerfile"

const dockerignoreFile = ".dockerignore"

// BuildOptions configures an image build.
type BuildOptions struct {
	// ContextDir is the build context root.
	ContextDir string
	// Dockerfile is relative to ContextDir. Defaults to DefaultDockerfile.
	Dockerfile string
	// Tags are applied to the built image. The first tag is the one reported.
	Tags      []string
	BuildArgs map[string]string
	NoCache   bool
	Pull      bool
	// Output receives the daemon's build log. Nil discards it.
	Output io.Writer
}

// Builder builds images with the local Docker daemon.
type Builder struct {
	daemon Daemon
}

// NewBuilder creates a new image builder.
func NewBuilder(daemon Daemon) *Builder {
	return &Builder{daemon: daemon}
}

// Build sends the context to the daemon and streams the build log to opts.Output.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) error {
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = DefaultDockerfile
	}

	buildContext, err := ContextArchive(opts.ContextDir, dockerfile)
	if err != nil {
		return err
	}

	defer func() { _ = buildContext.Close() }()

	buildArgs := make(map[string]*string, len(opts.BuildArgs))
	for key, value := range opts.BuildArgs {
		buildArgs[key] = &value
	}

	resp, err := b.daemon.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:        opts.Tags,
		Dockerfile:  filepath.ToSlash(dockerfile),
		BuildArgs:   buildArgs,
		NoCache:     opts.NoCache,
		PullParent:  opts.Pull,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start build: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	return streamBuildOutput(resp.Body, opts.Output)
}

// ContextArchive tars contextDir, skipping paths matched by its .dockerignore.
// The Dockerfile and .dockerignore are always sent.
func ContextArchive(contextDir, dockerfile string) (io.ReadCloser, error) {
	info, err := os.Stat(contextDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat build context: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrContextNotDir, contextDir)
	}

	excludes, err := readDockerignore(contextDir)
	if err != nil {
		return nil, err
	}

	matcher, err := patternmatcher.New(excludes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDockerignore, err)
	}

	for _, keep := range []string{filepath.ToSlash(dockerfile), dockerignoreFile} {
		excluded, matchErr := matcher.MatchesOrParentMatches(keep)
		if matchErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDockerignore, matchErr)
		}

		if excluded {
			excludes = append(excludes, "!"+keep)
		}
	}

	tarball, err := archive.TarWithOptions(contextDir, &archive.TarOptions{
		ExcludePatterns: excludes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive build context: %w", err)
	}

	return tarball, nil
}

// --- internals ---

func readDockerignore(contextDir string) ([]string, error) {
	file, err := os.Open(filepath.Join(contextDir, dockerignoreFile)) //nolint:gosec // path is the build context
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dockerignoreFile, err)
	}

	defer func() { _ = file.Close() }()

	patterns, err := ignorefile.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDockerignore, err)
	}

	return patterns, nil
}

func streamBuildOutput(body io.Reader, output io.Writer) error {
	if output == nil {
		output = io.Discard
	}

	var (
		fd         uintptr
		isTerminal bool
	)

	if file, ok := output.(*os.File); ok {
		fd = file.Fd()
		isTerminal = term.IsTerminal(int(fd)) //nolint:gosec // file descriptors fit in int
	}

	err := jsonmessage.DisplayJSONMessagesStream(body, output, fd, isTerminal, nil)
	if err != nil {
		var jsonErr *jsonmessage.JSONError
		if errors.As(err, &jsonErr) {
			return fmt.Errorf("%w: %s", ErrBuildFailed, jsonErr.Message)
		}

		return fmt.Errorf("failed to read build output: %w", err)
	}

	return nil
}
