package image_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devantler-tech/rollctl/pkg/client/netretry"
	"github.com/devantler-tech/rollctl/pkg/svc/image"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticSource(img v1.Image) image.ImageSource {
	return func(context.Context, name.Reference) (v1.Image, error) {
		return img, nil
	}
}

func fastRetries() image.PushOption {
	return image.WithRetryPolicy(netretry.Policy{
		Attempts: 2,
		BaseWait: time.Millisecond,
		MaxWait:  time.Millisecond,
	})
}

func registryHost(t *testing.T, handler http.Handler) string {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return strings.TrimPrefix(server.URL, "http://")
}

func basicAuth(username, password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != username || pass != password {
			w.Header().Set("WWW-Authenticate", `Basic realm="test"`)
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func TestPushWritesImageToRegistry(t *testing.T) {
	t.Parallel()

	img, err := random.Image(1024, 1)
	require.NoError(t, err)

	host := registryHost(t, registry.New())
	reference := fmt.Sprintf("%s/demo/app:v1", host)

	pusher := image.NewPusher(nil, image.WithImageSource(staticSource(img)), fastRetries())

	digest, err := pusher.Push(context.Background(), image.PushOptions{
		Image:    reference,
		Insecure: true,
	})
	require.NoError(t, err)

	want, err := img.Digest()
	require.NoError(t, err)
	assert.Equal(t, want.String(), digest)

	ref, err := name.ParseReference(reference, name.Insecure)
	require.NoError(t, err)

	desc, err := remote.Get(ref, remote.WithAuth(authn.Anonymous))
	require.NoError(t, err)
	assert.Equal(t, want, desc.Digest)
}

func TestPushUsesBasicAuth(t *testing.T) {
	t.Parallel()

	img, err := random.Image(512, 1)
	require.NoError(t, err)

	host := registryHost(t, basicAuth("ci", "s3cret", registry.New()))
	pusher := image.NewPusher(nil, image.WithImageSource(staticSource(img)), fastRetries())

	_, err = pusher.Push(context.Background(), image.PushOptions{
		Image:    host + "/demo/app:v1",
		Username: "ci",
		Password: "s3cret",
		Insecure: true,
	})
	require.NoError(t, err)

	_, err = pusher.Push(context.Background(), image.PushOptions{
		Image:    host + "/demo/app:v2",
		Username: "ci",
		Password: "wrong",
		Insecure: true,
	})
	require.Error(t, err)
}

func TestPushPropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	pusher := image.NewPusher(nil, image.WithImageSource(
		func(_ context.Context, ref name.Reference) (v1.Image, error) {
			return nil, fmt.Errorf("%w: %s", image.ErrImageNotFound, ref.Name())
		},
	))

	_, err := pusher.Push(context.Background(), image.PushOptions{Image: "localhost:5000/missing:v1"})

	require.ErrorIs(t, err, image.ErrImageNotFound)
}

func TestPushRejectsInvalidReference(t *testing.T) {
	t.Parallel()

	pusher := image.NewPusher(nil)

	_, err := pusher.Push(context.Background(), image.PushOptions{Image: "UPPER/Case::bad"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse reference")
}
