package llmclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewOpenAIClient("test-key", "test-model", srv.URL, 0)
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return c
}

func TestOpenAI_Generate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"const x = 1;"},"finish_reason":"stop"}]}`))
	})
	out, err := c.Generate(context.Background(), "convert this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "const x = 1;" {
		t.Fatalf("output = %q", out)
	}
}

func TestOpenAI_StatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		header http.Header
		check  func(t *testing.T, err error)
	}{
		{
			name: "unauthorized", status: 401, body: `{"error":"bad key"}`,
			check: func(t *testing.T, err error) {
				var e *AuthError
				if !errors.As(err, &e) {
					t.Fatalf("want AuthError, got %v", err)
				}
			},
		},
		{
			name: "rate limited with retry-after", status: 429, body: `{"error":"slow down"}`,
			header: http.Header{"Retry-After": []string{"7"}},
			check: func(t *testing.T, err error) {
				var e *RateLimitError
				if !errors.As(err, &e) {
					t.Fatalf("want RateLimitError, got %v", err)
				}
				if e.RetryAfter != 7*time.Second {
					t.Fatalf("RetryAfter = %v", e.RetryAfter)
				}
			},
		},
		{
			name: "server error", status: 503, body: `upstream down`,
			check: func(t *testing.T, err error) {
				var e *UnavailableError
				if !errors.As(err, &e) {
					t.Fatalf("want UnavailableError, got %v", err)
				}
			},
		},
		{
			name: "context too long", status: 400, body: `{"error":{"code":"context_length_exceeded"}}`,
			check: func(t *testing.T, err error) {
				var e *PermanentError
				if !errors.As(err, &e) {
					t.Fatalf("want PermanentError, got %v", err)
				}
				if IsTransient(err) {
					t.Fatal("oversized context must not be retried")
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, vs := range tc.header {
					for _, v := range vs {
						w.Header().Add(k, v)
					}
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.Generate(context.Background(), "p")
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)
		})
	}
}

func TestOpenAI_ContentFilterBlocked(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"partial"},"finish_reason":"content_filter"}]}`))
	})
	_, err := c.Generate(context.Background(), "p")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("want BlockedError, got %v", err)
	}
}

func TestOpenAI_ContentFilterBlockedWhenFullyStripped(t *testing.T) {
	// A completion filtered in its entirety has no content at all. It must
	// still classify as blocked, not as a malformed response.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"content_filter"}]}`))
	})
	_, err := c.Generate(context.Background(), "p")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("want BlockedError, got %v", err)
	}
	if blocked.Reason != "content_filter" {
		t.Fatalf("Reason = %q", blocked.Reason)
	}
}

func TestOpenAI_EmptyChoicesMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Generate(context.Background(), "p")
	var mal *MalformedResponseError
	if !errors.As(err, &mal) {
		t.Fatalf("want MalformedResponseError, got %v", err)
	}
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatal("empty completion sentinel lost")
	}
}

func TestOpenAI_GenerateJSONStripsFence(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"a\\\":1}\\n```" + `"},"finish_reason":"stop"}]}`))
	})
	raw, err := c.GenerateJSON(context.Background(), "p")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if string(raw) != `{"a":1}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestOpenAI_GenerateJSONRejectsNonJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"sorry, I cannot"},"finish_reason":"stop"}]}`))
	})
	_, err := c.GenerateJSON(context.Background(), "p")
	var mal *MalformedResponseError
	if !errors.As(err, &mal) {
		t.Fatalf("want MalformedResponseError, got %v", err)
	}
}
