package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"spring2node/internal/llmclient"
)

var msBackoff = []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}

func TestRetry_RateLimitThenSuccess(t *testing.T) {
	fake := &FakeClient{Script: []FakeCall{
		{Err: &llmclient.RateLimitError{Provider: "glm"}},
		{Err: &llmclient.RateLimitError{Provider: "glm"}},
		{Out: "converted"},
	}}
	cli := Wrap(fake, Retry(3, msBackoff))

	start := time.Now()
	out, err := cli.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != "converted" {
		t.Fatalf("unexpected output: %q", out)
	}
	if fake.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", fake.Calls())
	}
	// Two sleeps: 1ms then 2ms.
	if elapsed := time.Since(start); elapsed < 3*time.Millisecond {
		t.Fatalf("backoff not applied, elapsed %v", elapsed)
	}
}

func TestRetry_PermanentSurfacesImmediately(t *testing.T) {
	fake := &FakeClient{Script: []FakeCall{
		{Err: &llmclient.AuthError{Provider: "openrouter", Err: errors.New("401")}},
	}}
	cli := Wrap(fake, Retry(3, msBackoff))

	_, err := cli.Generate(context.Background(), "p")
	var auth *llmclient.AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if fake.Calls() != 1 {
		t.Fatalf("permanent error was retried: %d attempts", fake.Calls())
	}
}

func TestRetry_ExhaustedSurfacesLast(t *testing.T) {
	fake := &FakeClient{Respond: func(string) (string, error) {
		return "", &llmclient.UnavailableError{Provider: "gemini", Err: errors.New("503")}
	}}
	cli := Wrap(fake, Retry(2, msBackoff))

	_, err := cli.Generate(context.Background(), "p")
	var un *llmclient.UnavailableError
	if !errors.As(err, &un) {
		t.Fatalf("expected UnavailableError after exhaustion, got %v", err)
	}
	if fake.Calls() != 2 {
		t.Fatalf("expected 2 attempts, got %d", fake.Calls())
	}
}

func TestRetry_RetryAfterOverridesSchedule(t *testing.T) {
	fake := &FakeClient{Script: []FakeCall{
		{Err: &llmclient.RateLimitError{Provider: "glm", RetryAfter: 20 * time.Millisecond}},
		{Out: "ok"},
	}}
	cli := Wrap(fake, Retry(2, msBackoff))

	start := time.Now()
	if _, err := cli.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("provider retry-after ignored, elapsed %v", elapsed)
	}
}

func TestRetry_CanceledContextStops(t *testing.T) {
	fake := &FakeClient{Respond: func(string) (string, error) {
		return "", &llmclient.RateLimitError{Provider: "glm"}
	}}
	cli := Wrap(fake, Retry(5, []time.Duration{time.Second}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cli.Generate(ctx, "p")
		done <- err
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry loop did not observe cancellation")
	}
}
