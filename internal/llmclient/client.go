package llmclient

import (
	"context"
	"encoding/json"
)

// Client is the uniform contract over completion providers. Adapters only
// perform the API call itself; cross-cutting concerns (rate limiting,
// retries, caching, logging, fallback) are applied via middleware in the
// llm package.
type Client interface {
	Name() string
	// Generate sends prompt and returns the completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateJSON sends prompt requesting a JSON object and returns the
	// raw message. A syntactically invalid body yields MalformedResponseError.
	GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error)
	CountTokens(text string) int
	TokenCapacity() int
	Close() error
}
