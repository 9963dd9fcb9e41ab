package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient is a scriptable in-memory client for offline use and tests.
// Script entries are consumed in call order; once the script is exhausted,
// Respond is used, and when neither is set the prompt is echoed back.
type FakeClient struct {
	ClientName string
	TokenCap   int
	// Respond computes a reply for a prompt.
	Respond func(prompt string) (string, error)
	// Script queues per-call outcomes ahead of Respond.
	Script []FakeCall

	mu    sync.Mutex
	calls int
	// Prompts records every prompt seen, for assertions.
	Prompts []string
}

type FakeCall struct {
	Out string
	Err error
}

func (f *FakeClient) Name() string {
	if f.ClientName != "" {
		return f.ClientName
	}
	return "fake"
}

func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return len(text) / 4
}

func (f *FakeClient) TokenCapacity() int {
	if f.TokenCap > 0 {
		return f.TokenCap
	}
	return 4096
}

// Calls reports how many completions were requested.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	n := f.calls
	f.calls++
	f.Prompts = append(f.Prompts, prompt)
	f.mu.Unlock()

	if n < len(f.Script) {
		return f.Script[n].Out, f.Script[n].Err
	}
	if f.Respond != nil {
		return f.Respond(prompt)
	}
	return prompt, nil
}

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	out, err := f.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}
