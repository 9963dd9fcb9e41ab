package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const openAIBaseURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient calls an OpenAI-compatible Chat Completions endpoint. The
// OpenRouter and GLM adapters reuse it with their own base URLs and headers,
// since all three speak the same wire format.
type OpenAIClient struct {
	http     *http.Client
	provider string
	apiKey   string
	model    string
	baseURL  string
	headers  map[string]string
	tokenCap int
}

func NewOpenAIClient(apiKey, model, baseURL string, tokenCap int) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	if tokenCap <= 0 {
		tokenCap = 8000
	}
	return &OpenAIClient{
		http:     &http.Client{Timeout: 120 * time.Second},
		provider: "openai",
		apiKey:   apiKey,
		model:    model,
		baseURL:  baseURL,
		tokenCap: tokenCap,
	}, nil
}

func (c *OpenAIClient) Name() string { return c.provider + ":" + c.model }
func (c *OpenAIClient) Close() error { return nil }
func (c *OpenAIClient) CountTokens(text string) int {
	return EstimateTokens(text)
}
func (c *OpenAIClient) TokenCapacity() int { return c.tokenCap }

type chatReq struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	txt, err := c.complete(ctx, prompt, map[string]string{"type": "json_object"})
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(stripCodeFence(txt))
	var scratch any
	if err := json.Unmarshal(raw, &scratch); err != nil {
		return nil, &MalformedResponseError{Provider: c.Name(), Err: err}
	}
	return raw, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, respFormat map[string]string) (string, error) {
	body, _ := json.Marshal(chatReq{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    0,
		ResponseFormat: respFormat,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.classifyStatus(resp)
	}

	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &MalformedResponseError{Provider: c.Name(), Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &MalformedResponseError{Provider: c.Name(), Err: ErrEmptyCompletion}
	}
	// A fully filtered completion arrives with empty content, so the
	// finish reason decides before the emptiness check.
	if out.Choices[0].FinishReason == "content_filter" {
		return "", &BlockedError{Provider: c.Name(), Reason: "content_filter"}
	}
	if out.Choices[0].Message.Content == "" {
		return "", &MalformedResponseError{Provider: c.Name(), Err: ErrEmptyCompletion}
	}
	return out.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) classifyStatus(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	base := fmt.Errorf("unexpected status %s: %s", resp.Status, string(b))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Provider: c.Name(), Err: base}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Provider: c.Name(), RetryAfter: retryAfter(resp), Err: base}
	case resp.StatusCode >= 500:
		return &UnavailableError{Provider: c.Name(), Err: base}
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(b), "context_length_exceeded"):
		return NewPermanentError(base)
	default:
		return NewPermanentError(base)
	}
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
