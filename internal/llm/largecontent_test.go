package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"spring2node/internal/chunk"
)

func TestMapChunks_OrderSurvivesRandomLatency(t *testing.T) {
	chunks := make([]chunk.Chunk, 20)
	for i := range chunks {
		chunks[i] = chunk.Chunk{Seq: i, Text: fmt.Sprintf("part-%d", i)}
	}
	out, err := MapChunks(context.Background(), chunks, 8, func(ctx context.Context, c chunk.Chunk) (string, error) {
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		return c.Text, nil
	})
	if err != nil {
		t.Fatalf("MapChunks error: %v", err)
	}
	for i, s := range out {
		if want := fmt.Sprintf("part-%d", i); s != want {
			t.Fatalf("slot %d = %q, want %q", i, s, want)
		}
	}
}

func TestMapChunks_FailureCarriesChunkPosition(t *testing.T) {
	chunks := []chunk.Chunk{{Seq: 0, Text: "a"}, {Seq: 1, Text: "b"}}
	_, err := MapChunks(context.Background(), chunks, 2, func(ctx context.Context, c chunk.Chunk) (string, error) {
		if c.Seq == 1 {
			return "", errors.New("boom")
		}
		return c.Text, nil
	})
	if err == nil || !strings.Contains(err.Error(), "chunk 2/2") {
		t.Fatalf("expected positioned error, got %v", err)
	}
}

func TestProcessLargeContent_MergesInSequence(t *testing.T) {
	// Budget of 20 tokens (80 chars) cuts the unit at each line boundary.
	eng := chunk.NewEngine(20, 0)
	unit := strings.Repeat("a", 60) + "\n" + strings.Repeat("b", 60) + "\n" + strings.Repeat("c", 60)
	cli := &FakeClient{Respond: func(prompt string) (string, error) {
		// Echo the first byte of the chunk body so order is observable.
		body := strings.TrimPrefix(prompt, "convert: ")
		return body[:1], nil
	}}

	tmpl := func(text, _ string, _, _ int) string { return "convert: " + text }
	out, err := ProcessLargeContent(context.Background(), cli, eng, unit, tmpl, 4)
	if err != nil {
		t.Fatalf("ProcessLargeContent error: %v", err)
	}
	if out != "a\nb\nc" {
		t.Fatalf("merged output = %q", out)
	}
}

func TestProcessLargeContent_SingleChunkDirect(t *testing.T) {
	eng := chunk.NewEngine(0, 0)
	cli := &FakeClient{Respond: func(prompt string) (string, error) { return "done", nil }}
	out, err := ProcessLargeContent(context.Background(), cli, eng, "small unit", func(text, _ string, _, _ int) string { return text }, 4)
	if err != nil {
		t.Fatalf("ProcessLargeContent error: %v", err)
	}
	if out != "done" || cli.Calls() != 1 {
		t.Fatalf("out=%q calls=%d", out, cli.Calls())
	}
}

func TestCache_SecondHitSkipsProvider(t *testing.T) {
	fake := &FakeClient{Respond: func(string) (string, error) { return "cached body", nil }}
	cli := Wrap(fake, Cache(16))

	for i := 0; i < 3; i++ {
		out, err := cli.Generate(context.Background(), "same prompt")
		if err != nil || out != "cached body" {
			t.Fatalf("hit %d: out=%q err=%v", i, out, err)
		}
	}
	if fake.Calls() != 1 {
		t.Fatalf("provider called %d times, want 1", fake.Calls())
	}
}
