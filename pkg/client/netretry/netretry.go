// Package netretry provides shared retry utilities for transient network errors
// hit while talking to registries and the Docker daemon.
package netretry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

// Default retry policy values.
const (
	DefaultAttempts = 5
	DefaultBaseWait = 2 * time.Second
	DefaultMaxWait  = 30 * time.Second
)

// httpStatusCodePattern matches HTTP 5xx status codes at word boundaries
// to avoid false positives on port numbers like ":5000".
var httpStatusCodePattern = regexp.MustCompile(`\b50[0-4]\b`)

// Policy bounds a retry loop.
type Policy struct {
	Attempts int
	BaseWait time.Duration
	MaxWait  time.Duration
}

// DefaultPolicy returns the policy used for registry pushes.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: DefaultAttempts,
		BaseWait: DefaultBaseWait,
		MaxWait:  DefaultMaxWait,
	}
}

// IsRetryable returns true if the error indicates a transient network error
// that should be retried. This covers registry transport errors flagged as
// temporary, HTTP 5xx status codes and TCP-level errors such as connection
// resets and unexpected EOF.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		return transportErr.Temporary()
	}

	errMsg := err.Error()

	textPatterns := []string{
		"Internal Server Error", "Bad Gateway",
		"Service Unavailable", "Gateway Timeout",
		"connection reset by peer", "connection refused",
		"i/o timeout", "TLS handshake timeout",
		"unexpected EOF", "no such host",
		"Client.Timeout exceeded",
	}

	for _, pattern := range textPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return httpStatusCodePattern.MatchString(errMsg)
}

// ExponentialDelay returns the delay for the given retry attempt
// using exponential backoff.
// Uses the formula: min(baseWait * 2^(attempt-1), maxWait).
func ExponentialDelay(
	attempt int,
	baseWait, maxWait time.Duration,
) time.Duration {
	return min(baseWait*time.Duration(1<<(attempt-1)), maxWait)
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// policy runs out of attempts. Waits between attempts honour ctx.
func Do(ctx context.Context, policy Policy, operation string, fn func(context.Context) error) error {
	attempts := max(policy.Attempts, 1)

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !IsRetryable(lastErr) || attempt == attempts {
			break
		}

		timer := time.NewTimer(ExponentialDelay(attempt, policy.BaseWait, policy.MaxWait))
		select {
		case <-ctx.Done():
			timer.Stop()

			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed: %w", operation, lastErr)
}
