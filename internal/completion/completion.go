// Package completion provides the upstream model clients used by the
// analysis and review pipelines.
//
// A Client sends one prompt and returns one completion. Clients never retry:
// the orchestrator decides how a failed call degrades (fallback verdict,
// omitted benchmark), so hiding retries down here would only stretch request
// latency past the caller's deadline. Failures are classified into the two
// sentinel errors callers branch on, ErrTimeout and ErrRateLimited;
// everything else surfaces as a generic upstream error.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Default request parameters applied when Options leaves a field zero.
const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.3
)

var (
	// ErrTimeout reports that the upstream call exceeded its deadline,
	// whether from the per-call timeout or the caller's context.
	ErrTimeout = errors.New("upstream completion timed out")

	// ErrRateLimited reports an HTTP 429 from the upstream provider.
	ErrRateLimited = errors.New("upstream rate limit exceeded")
)

// Prompt is a single system+user instruction pair. System carries the role
// persona and output contract, User carries the manuscript material.
type Prompt struct {
	System string
	User   string
}

// Options tunes a single call. Zero fields fall back to the client's
// configured defaults.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Result is one completion together with the provider's token accounting.
type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Client sends a prompt to an upstream model and returns its completion.
//
// Invoke makes exactly one upstream attempt. The context bounds the whole
// call including pacing waits; implementations also enforce their configured
// per-call timeout.
type Client interface {
	Invoke(ctx context.Context, prompt Prompt, opts Options) (Result, error)
}

// classifyTransport maps request transport failures onto the sentinel
// errors. Client-side timeouts and context deadlines both become ErrTimeout;
// caller cancellation passes through untouched.
func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("upstream request failed: %w", err)
}

// classifyWait maps pacing-limiter failures. The limiter refuses to wait
// when the context cannot outlive the required delay, which callers should
// see as a timeout rather than a transport error.
func classifyWait(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrTimeout, err)
}

// outcomeLabel buckets an Invoke error for metrics.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
