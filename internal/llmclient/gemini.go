package llmclient

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli      *genai.Client
	model    string
	tokenCap int
}

func NewGeminiClient(ctx context.Context, apiKey, model string, tokenCap int) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if tokenCap <= 0 {
		tokenCap = 12000
	}
	return &GeminiClient{cli: cli, model: model, tokenCap: tokenCap}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }
func (g *GeminiClient) CountTokens(text string) int {
	return EstimateTokens(text)
}
func (g *GeminiClient) TokenCapacity() int { return g.tokenCap }

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, "")
}

// GenerateJSON asks for application/json and validates the body before
// returning it.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	txt, err := g.generate(ctx, prompt, "application/json")
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(stripCodeFence(txt))
	var scratch any
	if err := json.Unmarshal(raw, &scratch); err != nil {
		return nil, &MalformedResponseError{Provider: g.Name(), Err: err}
	}
	return raw, nil
}

func (g *GeminiClient) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if mimeType != "" {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: mimeType}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", &MalformedResponseError{Provider: g.Name(), Err: ErrEmptyCompletion}
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety ||
		cand.FinishReason == genai.FinishReasonRecitation {
		return "", &BlockedError{Provider: g.Name(), Reason: string(cand.FinishReason)}
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", &MalformedResponseError{Provider: g.Name(), Err: ErrEmptyCompletion}
	}
	return cand.Content.Parts[0].Text, nil
}

// stripCodeFence removes a surrounding markdown fence some models insist on
// adding around JSON bodies.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
