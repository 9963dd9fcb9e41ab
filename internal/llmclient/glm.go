package llmclient

import "fmt"

const glmBaseURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

// NewGLMClient returns a client for Zhipu's GLM chat endpoint, which is
// OpenAI-compatible. baseURL overrides the default for self-hosted gateways.
func NewGLMClient(apiKey, model, baseURL string, tokenCap int) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("glm: api key is required")
	}
	if baseURL == "" {
		baseURL = glmBaseURL
	}
	c, err := NewOpenAIClient(apiKey, model, baseURL, tokenCap)
	if err != nil {
		return nil, err
	}
	c.provider = "glm"
	return c, nil
}
