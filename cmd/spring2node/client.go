package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"spring2node/internal/chunk"
	"spring2node/internal/convert"
	"spring2node/internal/extract"
	"spring2node/internal/gen"
	"spring2node/internal/llm"
	"spring2node/internal/llmclient"
	"spring2node/internal/mapper"
	"spring2node/internal/pipeline"
)

// newClient resolves a profile into a wrapped completion client. When the
// profile names a fallback profile, unavailability fails over to it; the
// fallback's own fallback is not followed.
func newClient(ctx context.Context, cfg *llmclient.Config, name string, log *zap.Logger) (llmclient.Client, error) {
	p, err := cfg.Resolve(name)
	if err != nil {
		return nil, err
	}
	primary, err := wrapProfile(ctx, p, log)
	if err != nil {
		return nil, err
	}
	if p.Fallback == "" {
		return primary, nil
	}

	fp, err := cfg.Resolve(p.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback profile: %w", err)
	}
	alternate, err := wrapProfile(ctx, fp, log)
	if err != nil {
		return nil, fmt.Errorf("fallback profile: %w", err)
	}
	return llm.Fallback(primary, alternate, log), nil
}

func wrapProfile(ctx context.Context, p llmclient.Profile, log *zap.Logger) (llmclient.Client, error) {
	base, err := llmclient.New(ctx, p)
	if err != nil {
		return nil, err
	}
	// Cache sits outermost so a memoized prompt never spends a rate-limit
	// token or a retry attempt.
	return llm.Wrap(base,
		llm.Cache(0),
		llm.Retry(4, nil),
		llm.RateLimit(2, 4),
		llm.Logging(log),
	), nil
}

func buildComponents(ctx context.Context, req pipeline.Request, workers int, log *zap.Logger) (pipeline.Components, error) {
	cfg, err := llmclient.LoadConfig(configPath)
	if err != nil {
		return pipeline.Components{}, err
	}
	cli, err := newClient(ctx, cfg, req.Profile, log)
	if err != nil {
		return pipeline.Components{}, err
	}
	eng := chunk.NewEngine(0, 0)
	return pipeline.Components{
		Extractor: extract.NewExtractor(cli, eng, log),
		Converter: convert.NewConverter(cli, eng, req.Framework, req.ORM, log),
		Mapper:    mapper.New(log),
		Generator: gen.NewGenerator(log),
		Workers:   workers,
		Log:       log,
	}, nil
}
