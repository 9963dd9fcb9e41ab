package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"spring2node/internal/llmclient"
)

// DefaultBackoff mirrors the provider guidance we converged on: a short
// first pause, then widening waits.
var DefaultBackoff = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

// Retry retries transient failures (timeouts, rate limits, provider
// unavailability) up to maxAttempts, sleeping per the backoff schedule
// between attempts; the last schedule entry repeats when attempts outnumber
// entries. Permanent errors (auth, malformed response, blocked) surface
// immediately. If the context is canceled, it stops at once.
func Retry(maxAttempts int, backoff []time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	return func(next llmclient.Client) llmclient.Client {
		return &retrying{next: next, max: maxAttempts, backoff: backoff}
	}
}

type retrying struct {
	next    llmclient.Client
	max     int
	backoff []time.Duration
}

func (r *retrying) Name() string                { return r.next.Name() }
func (r *retrying) Close() error                { return r.next.Close() }
func (r *retrying) CountTokens(text string) int { return r.next.CountTokens(text) }
func (r *retrying) TokenCapacity() int          { return r.next.TokenCapacity() }

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.Generate(ctx, prompt)
		return err
	})
	return out, err
}

func (r *retrying) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	var out json.RawMessage
	err := r.do(ctx, func() error {
		var err error
		out, err = r.next.GenerateJSON(ctx, prompt)
		return err
	})
	return out, err
}

func (r *retrying) do(ctx context.Context, call func() error) error {
	var last error
	for attempt := 0; attempt < r.max; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if !llmclient.IsTransient(err) {
			return err
		}
		last = err
		if attempt == r.max-1 {
			break
		}
		wait := r.backoff[min(attempt, len(r.backoff)-1)]
		// A provider-announced delay takes precedence over the schedule.
		var rl *llmclient.RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > wait {
			wait = rl.RetryAfter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return last
}
