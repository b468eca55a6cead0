// Package image builds, pushes and loads the container images that rollouts
// deploy.
//
// Builds run against the local Docker daemon with a context that honours
// .dockerignore. Pushes read the built image back from the daemon and write
// it to a registry with go-containerregistry. Loads copy a saved archive onto
// every node of a kind cluster and import it into the node's containerd.
//
// All operations use Go libraries only (Docker SDK, go-containerregistry) and
// do not rely on any binaries installed on the host machine.
package image

import "errors"

// Sentinel errors for the image package.
var (
	// ErrExecFailed is returned when a container exec command fails.
	ErrExecFailed = errors.New("container exec failed")
	// ErrImageNotFound is returned when an image is missing from the local daemon.
	ErrImageNotFound = errors.New("image not found in local daemon")
	// ErrNoNodes is returned when a cluster has no nodes to load images onto.
	ErrNoNodes = errors.New("cluster has no nodes")
	// ErrNoImages is returned when a load is requested without any image.
	ErrNoImages = errors.New("no images given")
	// ErrBuildFailed is returned when the daemon reports a build error.
	ErrBuildFailed = errors.New("image build failed")
	// ErrContextNotDir is returned when the build context is not a directory.
	ErrContextNotDir = errors.New("build context is not a directory")
	// ErrInvalidDockerignore is returned when .dockerignore holds an invalid pattern.
	ErrInvalidDockerignore = errors.New("invalid .dockerignore")
)
