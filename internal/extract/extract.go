package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spring2node/internal/chunk"
	"spring2node/internal/llmclient"
)

// Method describes one callable member of a source module.
type Method struct {
	Name        string `json:"name"`
	Signature   string `json:"signature"`
	Description string `json:"description"`
	Complexity  string `json:"complexity"`
}

// Module is the structured description of one source class or interface.
type Module struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Description  string   `json:"description"`
	Methods      []Method `json:"methods"`
	Dependencies []string `json:"dependencies"`
}

// Extraction source markers. Downstream consumers treat heuristic results
// with lower confidence than model-derived ones.
const (
	SourceLLM       = "llm"
	SourceHeuristic = "heuristic"
)

// Outcome is the typed result of one quality-gated extraction attempt chain.
type Outcome int

const (
	Success Outcome = iota
	ExhaustedFallback
)

func (o Outcome) String() string {
	if o == ExhaustedFallback {
		return "exhausted_fallback"
	}
	return "success"
}

// Extraction carries the accepted module plus how it was obtained.
// Diagnostics holds one entry per quality rejection along the way.
type Extraction struct {
	Module      Module
	Source      string
	Outcome     Outcome
	Diagnostics []string
}

// Extractor produces quality-gated module metadata from source text.
type Extractor struct {
	Client     llmclient.Client
	Engine     *chunk.Engine
	MaxRetries int
	Log        *zap.Logger
}

const defaultMaxRetries = 3

func NewExtractor(cli llmclient.Client, eng *chunk.Engine, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eng == nil {
		eng = chunk.NewEngine(0, 0)
	}
	return &Extractor{Client: cli, Engine: eng, MaxRetries: defaultMaxRetries, Log: logger}
}

// Extract asks the model for module metadata and re-asks with a refined
// instruction while the quality gate rejects the answer, up to MaxRetries
// attempts. Exhaustion falls back to structural parsing, so the call always
// returns a usable module; the error return covers context cancellation only.
func (e *Extractor) Extract(ctx context.Context, name, kind, source string) (Extraction, error) {
	retries := e.MaxRetries
	if retries < 1 {
		retries = defaultMaxRetries
	}

	var diags []string
	for attempt := 0; attempt < retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Extraction{}, err
		}
		mod, err := e.attempt(ctx, name, kind, source, diags)
		if err != nil {
			if ctx.Err() != nil {
				return Extraction{}, ctx.Err()
			}
			diags = append(diags, fmt.Sprintf("%s: extraction attempt %d failed: %v", name, attempt+1, err))
			continue
		}
		if problems := ValidateModule(mod); len(problems) > 0 {
			diags = append(diags, fmt.Sprintf("%s: quality rejected (attempt %d): %s", name, attempt+1, strings.Join(problems, "; ")))
			e.Log.Debug("extraction rejected",
				zap.String("module", name),
				zap.Int("attempt", attempt+1),
				zap.Strings("problems", problems))
			continue
		}
		return Extraction{Module: mod, Source: SourceLLM, Outcome: Success, Diagnostics: diags}, nil
	}

	e.Log.Info("extraction retries exhausted, using structural fallback", zap.String("module", name))
	return Extraction{
		Module:      Heuristic(name, kind, source),
		Source:      SourceHeuristic,
		Outcome:     ExhaustedFallback,
		Diagnostics: diags,
	}, nil
}

// attempt issues one model request. Oversized sources are split and the
// per-chunk modules merged; interfaces get the signature-grouping mode.
func (e *Extractor) attempt(ctx context.Context, name, kind, source string, prior []string) (Module, error) {
	refinement := refineInstruction(prior)

	if e.Engine.Estimate == nil || e.Engine.MaxChunkTokens <= 0 ||
		llmclient.EstimateTokens(source) <= e.Engine.MaxChunkTokens {
		return e.requestModule(ctx, name, kind, source, refinement)
	}

	var chunks []chunk.Chunk
	if kind == "repository" || strings.Contains(source, "interface ") {
		chunks = e.Engine.SplitInterface(source)
	} else {
		chunks = e.Engine.Split(source)
	}
	if len(chunks) == 1 {
		return e.requestModule(ctx, name, kind, chunks[0].Text, refinement)
	}

	merged := Module{Name: name, Kind: kind}
	for i, c := range chunks {
		body := c.Text
		if c.Context != "" {
			body = c.Context + "\n" + body
		}
		part, err := e.requestModule(ctx, name, kind,
			fmt.Sprintf("// part %d of %d\n%s", i+1, len(chunks), body), refinement)
		if err != nil {
			return Module{}, err
		}
		merged = mergeModules(merged, part)
	}
	return merged, nil
}

func (e *Extractor) requestModule(ctx context.Context, name, kind, source, refinement string) (Module, error) {
	raw, err := e.Client.GenerateJSON(ctx, extractionPrompt(name, kind, source, refinement))
	if err != nil {
		return Module{}, err
	}
	var mod Module
	if err := json.Unmarshal(raw, &mod); err != nil {
		return Module{}, &llmclient.MalformedResponseError{Provider: e.Client.Name(), Err: err}
	}
	if mod.Name == "" {
		mod.Name = name
	}
	if mod.Kind == "" {
		mod.Kind = kind
	}
	return mod, nil
}

func extractionPrompt(name, kind, source, refinement string) string {
	var b strings.Builder
	b.WriteString("Analyze the following Java ")
	b.WriteString(kind)
	b.WriteString(" and return a JSON object with fields name, kind, description, ")
	b.WriteString(`methods (array of {name, signature, description, complexity}) and dependencies. `)
	b.WriteString("Complexity is one of Low, Medium, High. Descriptions must explain behavior, not restate the name.\n")
	if refinement != "" {
		b.WriteString(refinement)
		b.WriteString("\n")
	}
	b.WriteString("\n// ")
	b.WriteString(name)
	b.WriteString("\n")
	b.WriteString(source)
	return b.String()
}

// refineInstruction turns prior rejections into a pointed follow-up so the
// model fixes what was actually missing instead of rephrasing.
func refineInstruction(prior []string) string {
	if len(prior) == 0 {
		return ""
	}
	last := prior[len(prior)-1]
	return "The previous answer was rejected: " + last + ". Address every listed problem."
}

func mergeModules(a, b Module) Module {
	if a.Description == "" {
		a.Description = b.Description
	} else if b.Description != "" && b.Description != a.Description {
		a.Description += " " + b.Description
	}
	seen := make(map[string]bool, len(a.Methods))
	for _, m := range a.Methods {
		seen[m.Name+m.Signature] = true
	}
	for _, m := range b.Methods {
		if !seen[m.Name+m.Signature] {
			a.Methods = append(a.Methods, m)
			seen[m.Name+m.Signature] = true
		}
	}
	deps := make(map[string]bool, len(a.Dependencies))
	for _, d := range a.Dependencies {
		deps[d] = true
	}
	for _, d := range b.Dependencies {
		if !deps[d] {
			a.Dependencies = append(a.Dependencies, d)
			deps[d] = true
		}
	}
	return a
}
