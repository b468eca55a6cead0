package image

import (
	"context"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/devantler-tech/rollctl/pkg/client/netretry"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/daemon"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// PushOptions configures an image push.
type PushOptions struct {
	// Image is the reference to push. It must already exist in the local daemon.
	Image    string
	Username string
	Password string
	// Insecure allows plain HTTP registries.
	Insecure bool
}

// ImageSource resolves a reference to an image.
type ImageSource func(ctx context.Context, ref name.Reference) (v1.Image, error)

// PushOption configures a Pusher.
type PushOption func(*Pusher)

// WithImageSource replaces the local daemon as the image source.
func WithImageSource(source ImageSource) PushOption {
	return func(p *Pusher) {
		p.source = source
	}
}

// WithRetryPolicy sets how transient registry errors are retried.
func WithRetryPolicy(policy netretry.Policy) PushOption {
	return func(p *Pusher) {
		p.policy = policy
	}
}

// Pusher copies images from the local daemon to a registry.
type Pusher struct {
	source ImageSource
	policy netretry.Policy
}

// NewPusher creates a pusher reading images from the given daemon.
func NewPusher(client daemon.Client, opts ...PushOption) *Pusher {
	pusher := &Pusher{
		source: daemonSource(client),
		policy: netretry.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(pusher)
	}

	return pusher
}

// Push writes the image to its registry and returns the pushed digest.
func (p *Pusher) Push(ctx context.Context, opts PushOptions) (string, error) {
	nameOpts := []name.Option{name.WeakValidation}
	if opts.Insecure {
		nameOpts = append(nameOpts, name.Insecure)
	}

	ref, err := name.ParseReference(opts.Image, nameOpts...)
	if err != nil {
		return "", fmt.Errorf("parse reference: %w", err)
	}

	img, err := p.source(ctx, ref)
	if err != nil {
		return "", err
	}

	digest, err := img.Digest()
	if err != nil {
		return "", fmt.Errorf("compute digest of %s: %w", ref, err)
	}

	err = netretry.Do(ctx, p.policy, "push "+ref.String(), func(ctx context.Context) error {
		//nolint:wrapcheck // wrapped by netretry.Do
		return remote.Write(ref, img, remoteOptions(ctx, opts)...)
	})
	if err != nil {
		return "", err //nolint:wrapcheck // already wrapped with the operation
	}

	return digest.String(), nil
}

// --- internals ---

func remoteOptions(ctx context.Context, opts PushOptions) []remote.Option {
	remoteOpts := []remote.Option{remote.WithContext(ctx)}

	if opts.Username != "" || opts.Password != "" {
		remoteOpts = append(remoteOpts, remote.WithAuth(&authn.Basic{
			Username: opts.Username,
			Password: opts.Password,
		}))
	} else {
		remoteOpts = append(remoteOpts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}

	return remoteOpts
}

func daemonSource(client daemon.Client) ImageSource {
	return func(ctx context.Context, ref name.Reference) (v1.Image, error) {
		_, _, err := client.ImageInspectWithRaw(ctx, ref.Name())
		if err != nil {
			if cerrdefs.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref.Name())
			}

			return nil, fmt.Errorf("inspect image %s: %w", ref.Name(), err)
		}

		img, err := daemon.Image(ref, daemon.WithContext(ctx), daemon.WithClient(client))
		if err != nil {
			return nil, fmt.Errorf("read image %s from daemon: %w", ref.Name(), err)
		}

		return img, nil
	}
}
