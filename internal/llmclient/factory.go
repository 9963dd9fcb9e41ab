package llmclient

import (
	"context"
	"fmt"
	"strings"
)

// New resolves a profile to a concrete adapter. Providers are a closed set;
// adding one means adding an adapter plus a case here, call sites are
// untouched.
func New(ctx context.Context, p Profile) (Client, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(p.Provider)) {
	case "gemini":
		return NewGeminiClient(ctx, p.APIKey, p.Model, p.TokenCap)
	case "openai":
		return NewOpenAIClient(p.APIKey, p.Model, p.BaseURL, p.TokenCap)
	case "openrouter":
		return NewOpenRouterClient(p.APIKey, p.Model, p.TokenCap)
	case "glm":
		return NewGLMClient(p.APIKey, p.Model, p.BaseURL, p.TokenCap)
	default:
		return nil, fmt.Errorf("unknown provider: %s", p.Provider)
	}
}
