package llm

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"spring2node/internal/llmclient"
)

// Fallback routes to alternate when primary fails with a transient error
// (provider unavailable, or retries already exhausted inside primary's own
// Retry wrapper). Primary and alternate keep independent retry budgets:
// wrap each with Retry before combining. Permanent errors (auth rejection,
// malformed output, blocked content) never trigger the alternate, since the
// request itself is the problem.
func Fallback(primary, alternate llmclient.Client, logger *zap.Logger) llmclient.Client {
	if alternate == nil {
		return primary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallback{primary: primary, alternate: alternate, log: logger}
}

type fallback struct {
	primary   llmclient.Client
	alternate llmclient.Client
	log       *zap.Logger
}

func (f *fallback) Name() string                { return f.primary.Name() }
func (f *fallback) CountTokens(text string) int { return f.primary.CountTokens(text) }

// TokenCapacity reports the smaller capacity so chunking stays valid for
// whichever side ends up serving the request.
func (f *fallback) TokenCapacity() int {
	p, a := f.primary.TokenCapacity(), f.alternate.TokenCapacity()
	if a > 0 && a < p {
		return a
	}
	return p
}

func (f *fallback) Close() error {
	err := f.primary.Close()
	if aErr := f.alternate.Close(); err == nil {
		err = aErr
	}
	return err
}

func (f *fallback) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := f.primary.Generate(ctx, prompt)
	if err == nil || !f.shouldFallback(ctx, err) {
		return out, err
	}
	return f.alternate.Generate(ctx, prompt)
}

func (f *fallback) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	out, err := f.primary.GenerateJSON(ctx, prompt)
	if err == nil || !f.shouldFallback(ctx, err) {
		return out, err
	}
	return f.alternate.GenerateJSON(ctx, prompt)
}

func (f *fallback) shouldFallback(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if !llmclient.IsTransient(err) {
		return false
	}
	f.log.Warn("falling back to alternate profile",
		zap.String("primary", f.primary.Name()),
		zap.String("alternate", f.alternate.Name()),
		zap.Error(err))
	return true
}
