package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"spring2node/internal/llmclient"
)

// Logging records request size, duration and outcome for every completion.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next llmclient.Client) llmclient.Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.Client
	log  *zap.Logger
}

func (c *logging) Name() string                { return c.next.Name() }
func (c *logging) Close() error                { return c.next.Close() }
func (c *logging) CountTokens(text string) int { return c.next.CountTokens(text) }
func (c *logging) TokenCapacity() int          { return c.next.TokenCapacity() }

func (c *logging) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := c.next.Generate(ctx, prompt)
	c.observe("generate", prompt, start, err)
	return out, err
}

func (c *logging) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	start := time.Now()
	out, err := c.next.GenerateJSON(ctx, prompt)
	c.observe("generate_json", prompt, start, err)
	return out, err
}

func (c *logging) observe(op, prompt string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("client", c.next.Name()),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.log.Warn("completion "+op+" failed", append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug("completion "+op, fields...)
}
