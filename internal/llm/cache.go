package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"spring2node/internal/llmclient"
)

// Cache memoizes completions by prompt hash. Conversion phases re-request
// identical prompts when a later phase revisits a file, and re-running an
// identical chunk costs real provider quota.
func Cache(size int) Middleware {
	if size <= 0 {
		size = 512
	}
	return func(next llmclient.Client) llmclient.Client {
		texts, err := lru.New[string, string](size)
		if err != nil {
			return next
		}
		raws, err := lru.New[string, json.RawMessage](size)
		if err != nil {
			return next
		}
		return &cached{next: next, texts: texts, raws: raws}
	}
}

type cached struct {
	next  llmclient.Client
	texts *lru.Cache[string, string]
	raws  *lru.Cache[string, json.RawMessage]
}

func (c *cached) Name() string                { return c.next.Name() }
func (c *cached) Close() error                { return c.next.Close() }
func (c *cached) CountTokens(text string) int { return c.next.CountTokens(text) }
func (c *cached) TokenCapacity() int          { return c.next.TokenCapacity() }

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func (c *cached) Generate(ctx context.Context, prompt string) (string, error) {
	key := promptKey(prompt)
	if out, ok := c.texts.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.texts.Add(key, out)
	return out, nil
}

func (c *cached) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	key := promptKey(prompt)
	if out, ok := c.raws.Get(key); ok {
		return out, nil
	}
	out, err := c.next.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	c.raws.Add(key, out)
	return out, nil
}
