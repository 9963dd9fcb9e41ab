package llmclient

import "fmt"

const openRouterBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// NewOpenRouterClient returns a client for OpenRouter's OpenAI-compatible
// endpoint. Model names are namespaced (e.g. "anthropic/claude-3.5-sonnet").
func NewOpenRouterClient(apiKey, model string, tokenCap int) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: api key is required")
	}
	c, err := NewOpenAIClient(apiKey, model, openRouterBaseURL, tokenCap)
	if err != nil {
		return nil, err
	}
	c.provider = "openrouter"
	c.headers = map[string]string{
		"HTTP-Referer": "https://github.com/spring2node",
		"X-Title":      "spring2node",
	}
	return c, nil
}
