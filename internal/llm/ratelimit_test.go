package llm

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRateLimit_BurstThenBlocks(t *testing.T) {
	fake := &FakeClient{Respond: func(string) (string, error) { return "ok", nil }}
	cli := Wrap(fake, RateLimit(0.05, 1))
	defer cli.Close()

	if _, err := cli.Generate(context.Background(), "first"); err != nil {
		t.Fatalf("burst call: %v", err)
	}

	// Bucket is empty and the next refill is 20s out, so this call must
	// wait until the deadline fires.
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := cli.Generate(ctx, "second"); err != context.DeadlineExceeded {
		t.Fatalf("throttled call err = %v, want deadline exceeded", err)
	}
	if fake.Calls() != 1 {
		t.Fatalf("provider called %d times, want 1", fake.Calls())
	}
}

func TestRateLimit_CachedPromptSkipsThrottle(t *testing.T) {
	fake := &FakeClient{Respond: func(string) (string, error) { return "converted", nil }}
	// Same stacking order as the CLI: the cache sits outside the limiter
	// so a memoized prompt never spends a token.
	cli := Wrap(fake,
		Cache(8),
		Retry(4, nil),
		RateLimit(0.05, 1),
		Logging(zap.NewNop()),
	)
	defer cli.Close()

	if _, err := cli.Generate(context.Background(), "same prompt"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// The single burst token is gone. A repeat of the same prompt must
	// come back from the cache well before any refill.
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	out, err := cli.Generate(ctx, "same prompt")
	if err != nil {
		t.Fatalf("cached call: %v", err)
	}
	if out != "converted" || fake.Calls() != 1 {
		t.Fatalf("out=%q calls=%d, want converted/1", out, fake.Calls())
	}
}
