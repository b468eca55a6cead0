package netretry_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/devantler-tech/rollctl/pkg/client/netretry"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Static test errors for retry tests.
// Error messages intentionally match real HTTP/network error patterns including capitalization.
var (
	errGeneric            = errors.New("something went wrong")
	errNotFound           = errors.New("404 Not Found")
	errBadRequest         = errors.New("400 Bad Request")
	errUnauthorized       = errors.New("unauthorized: authentication required")
	errConnectPort5000    = errors.New("connect to :5000")
	errDownload500        = errors.New("failed to download: 500")
	errInternalServer     = errors.New("server returned Internal Server Error")
	errUpstream502        = errors.New("upstream returned 502")
	errBadGateway         = errors.New("response: Bad Gateway error occurred")
	errStatusCode503      = errors.New("got status code 503")
	errServiceUnavailable = errors.New("response: Service Unavailable - try again later")
	errTimeout504         = errors.New("504 timeout from proxy")
	errGatewayTimeout     = errors.New("response: Gateway Timeout waiting for upstream")
	errWrapped500         = errors.New(
		"failed to download index: server returned 500 Internal Server Error",
	)
	errConnReset = errors.New(
		"read tcp 10.1.0.115:37414->98.84.224.111:443: read: connection reset by peer",
	)
	errConnRefused = errors.New(
		"dial tcp 127.0.0.1:443: connect: connection refused",
	)
	errIOTimeout = errors.New(
		"net/http: request canceled (Client.Timeout exceeded): i/o timeout",
	)
	errTLSTimeout    = errors.New("net/http: TLS handshake timeout")
	errUnexpectedEOF = errors.New("unexpected EOF")
	errNoSuchHost    = errors.New(
		"dial tcp: lookup charts.example.com: no such host",
	)
	errContextDeadline = errors.New(
		"context deadline exceeded (Client.Timeout exceeded while awaiting headers)",
	)
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		// Non-retryable cases.
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errGeneric, expected: false},
		{name: "404 not found", err: errNotFound, expected: false},
		{name: "400 bad request", err: errBadRequest, expected: false},
		{name: "auth error", err: errUnauthorized, expected: false},
		{name: "port 5000 not matched", err: errConnectPort5000, expected: false},
		// HTTP 5xx codes.
		{name: "500 code", err: errDownload500, expected: true},
		{name: "500 text", err: errInternalServer, expected: true},
		{name: "502 code", err: errUpstream502, expected: true},
		{name: "502 text", err: errBadGateway, expected: true},
		{name: "503 code", err: errStatusCode503, expected: true},
		{name: "503 text", err: errServiceUnavailable, expected: true},
		{name: "504 code", err: errTimeout504, expected: true},
		{name: "504 text", err: errGatewayTimeout, expected: true},
		{name: "wrapped 500", err: errWrapped500, expected: true},
		// TCP-level transient errors.
		{name: "connection reset by peer", err: errConnReset, expected: true},
		{name: "connection refused", err: errConnRefused, expected: true},
		{name: "i/o timeout", err: errIOTimeout, expected: true},
		{name: "TLS handshake timeout", err: errTLSTimeout, expected: true},
		{name: "unexpected EOF", err: errUnexpectedEOF, expected: true},
		{name: "no such host", err: errNoSuchHost, expected: true},
		{name: "context deadline exceeded", err: errContextDeadline, expected: true},
		// Registry transport errors.
		{
			name:     "registry 503",
			err:      &transport.Error{StatusCode: http.StatusServiceUnavailable},
			expected: true,
		},
		{
			name:     "registry 401",
			err:      &transport.Error{StatusCode: http.StatusUnauthorized},
			expected: false,
		},
		{name: "cancelled", err: context.Canceled, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := netretry.IsRetryable(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExponentialDelay(t *testing.T) {
	t.Parallel()

	baseWait := 2 * time.Second
	maxWait := 15 * time.Second

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first attempt", attempt: 1, expected: 2 * time.Second},
		{name: "second attempt", attempt: 2, expected: 4 * time.Second},
		{name: "third attempt", attempt: 3, expected: 8 * time.Second},
		{name: "fourth attempt capped", attempt: 4, expected: 15 * time.Second},
		{name: "large attempt at max", attempt: 10, expected: 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := netretry.ExponentialDelay(tt.attempt, baseWait, maxWait)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func fastPolicy() netretry.Policy {
	return netretry.Policy{Attempts: 3, BaseWait: time.Millisecond, MaxWait: time.Millisecond}
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	err := netretry.Do(context.Background(), fastPolicy(), "push", func(context.Context) error {
		calls++
		if calls < 3 {
			return errUpstream502
		}

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := netretry.Do(context.Background(), fastPolicy(), "push", func(context.Context) error {
		calls++

		return errUnauthorized
	})

	require.ErrorIs(t, err, errUnauthorized)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "push failed")
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := netretry.Do(context.Background(), fastPolicy(), "push", func(context.Context) error {
		calls++

		return errConnReset
	})

	require.ErrorIs(t, err, errConnReset)
	assert.Equal(t, 3, calls)
}

func TestDo_HonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	policy := netretry.Policy{Attempts: 3, BaseWait: time.Hour, MaxWait: time.Hour}

	err := netretry.Do(ctx, policy, "push", func(context.Context) error {
		cancel()

		return errConnReset
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "push cancelled")
}
