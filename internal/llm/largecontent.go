package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"spring2node/internal/chunk"
	"spring2node/internal/llmclient"
)

// PromptTemplate renders the request for one chunk. chunkCtx carries the
// enclosing declaration for member-level chunks (empty otherwise); idx and
// total are 1-based position information for the model.
type PromptTemplate func(chunkText, chunkCtx string, idx, total int) string

// MapChunks runs fn once per chunk with at most workers in flight, and
// returns results in chunk sequence order regardless of completion order:
// each result lands in a slot indexed by its sequence number.
func MapChunks[T any](ctx context.Context, chunks []chunk.Chunk, workers int, fn func(ctx context.Context, c chunk.Chunk) (T, error)) ([]T, error) {
	results := make([]T, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, c := range chunks {
		g.Go(func() error {
			out, err := fn(gctx, c)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", c.Seq+1, len(chunks), err)
			}
			results[c.Seq] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessLargeContent splits unit under the engine's chunk budget, issues
// one completion per chunk through cli, and merges the per-chunk outputs
// back into one document by ascending sequence index.
func ProcessLargeContent(ctx context.Context, cli llmclient.Client, eng *chunk.Engine, unit string, tmpl PromptTemplate, workers int) (string, error) {
	chunks := eng.Split(unit)
	if len(chunks) == 1 {
		return cli.Generate(ctx, tmpl(chunks[0].Text, chunks[0].Context, 1, 1))
	}
	parts, err := MapChunks(ctx, chunks, workers, func(ctx context.Context, c chunk.Chunk) (string, error) {
		return cli.Generate(ctx, tmpl(c.Text, c.Context, c.Seq+1, len(chunks)))
	})
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}
