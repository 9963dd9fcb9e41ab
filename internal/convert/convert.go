package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spring2node/internal/analyzer"
	"spring2node/internal/chunk"
	"spring2node/internal/extract"
	"spring2node/internal/llm"
	"spring2node/internal/llmclient"
)

// Status of one converted artifact.
type Status string

const (
	StatusConverted Status = "converted"
	StatusStubbed   Status = "stubbed"
	StatusFailed    Status = "failed"
)

// Artifact is one generated target-language unit.
type Artifact struct {
	Name   string
	Kind   analyzer.Category
	Path   string
	Code   string
	Status Status
}

// Target frameworks and persistence layers the converter can emit.
const (
	FrameworkExpress = "express"
	FrameworkNestJS  = "nestjs"
	ORMSequelize     = "sequelize"
	ORMTypeORM       = "typeorm"
)

// Converter turns one source module into a target artifact via completion
// calls, screening every result before accepting it.
type Converter struct {
	Client    llmclient.Client
	Engine    *chunk.Engine
	Framework string
	ORM       string
	Workers   int
	Log       *zap.Logger
}

func NewConverter(cli llmclient.Client, eng *chunk.Engine, framework, orm string, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eng == nil {
		eng = chunk.NewEngine(0, 0)
	}
	if framework == "" {
		framework = FrameworkExpress
	}
	if orm == "" {
		orm = ORMSequelize
	}
	return &Converter{Client: cli, Engine: eng, Framework: framework, ORM: orm, Workers: 4, Log: logger}
}

// Convert generates the target artifact for one module. Failures are local:
// a provider error or a safety hit yields a stub artifact, and the caller
// records the returned block or error without aborting sibling conversions.
// The error return is non-nil only for generation failures; a safety hit is
// reported via the block alone.
func (c *Converter) Convert(ctx context.Context, mod extract.Module, source string) (Artifact, *SafetyBlock, error) {
	art := Artifact{Name: mod.Name, Kind: analyzer.Category(mod.Kind), Path: targetPath(mod)}

	code, err := c.generate(ctx, mod, source)
	if err != nil {
		var blocked *llmclient.BlockedError
		if errors.As(err, &blocked) {
			block := &SafetyBlock{Artifact: mod.Name, Reason: ReasonProviderBlocked, Span: blocked.Reason}
			art.Code = Stub(c.Framework, c.ORM, mod)
			art.Status = StatusStubbed
			c.Log.Warn("provider blocked conversion", zap.String("artifact", mod.Name), zap.String("reason", blocked.Reason))
			return art, block, nil
		}
		art.Code = Stub(c.Framework, c.ORM, mod)
		art.Status = StatusFailed
		return art, nil, fmt.Errorf("convert %s: %w", mod.Name, err)
	}

	code = cleanGenerated(code)
	if block := Detect(mod.Name, code); block != nil {
		c.Log.Warn("generated artifact failed safety screening",
			zap.String("artifact", mod.Name),
			zap.String("reason", block.Reason))
		art.Code = Stub(c.Framework, c.ORM, mod)
		art.Status = StatusStubbed
		return art, block, nil
	}

	art.Code = code
	art.Status = StatusConverted
	return art, nil, nil
}

func (c *Converter) generate(ctx context.Context, mod extract.Module, source string) (string, error) {
	header := c.promptHeader(mod)
	if c.Engine.MaxChunkTokens > 0 && llmclient.EstimateTokens(source) > c.Engine.MaxChunkTokens {
		tmpl := func(text, chunkCtx string, idx, total int) string {
			var b strings.Builder
			b.WriteString(header)
			fmt.Fprintf(&b, "\nThis is part %d of %d of the source.\n", idx, total)
			if chunkCtx != "" {
				b.WriteString("Enclosing declaration: " + chunkCtx + "\n")
			}
			b.WriteString("\n```java\n" + text + "\n```\nReturn only code, no explanation.")
			return b.String()
		}
		return llm.ProcessLargeContent(ctx, c.Client, c.Engine, source, tmpl, c.Workers)
	}
	return c.Client.Generate(ctx, header+"\n\n```java\n"+source+"\n```\nReturn only code, no explanation.")
}

func (c *Converter) promptHeader(mod extract.Module) string {
	switch analyzer.Category(mod.Kind) {
	case analyzer.CategoryEntity:
		return fmt.Sprintf("Convert this JPA entity to a %s model for %s. Map JPA annotations (@Table, @Id, @Column, relations) to their %s equivalents.", c.ORM, c.Framework, c.ORM)
	case analyzer.CategoryRepository:
		return fmt.Sprintf("Convert this Spring Data repository to a %s data-access module. Translate each derived query method into an equivalent %s query.", c.ORM, c.ORM)
	case analyzer.CategoryService:
		return fmt.Sprintf("Convert this Spring service to a Node.js service module for %s. Keep method names and behavior, use async/await, and import the matching data-access modules.", c.Framework)
	case analyzer.CategoryController:
		return fmt.Sprintf("Convert this Spring controller to %s routes. Map each request mapping to a route handler calling the matching service method.", c.Framework)
	default:
		return fmt.Sprintf("Convert this Java class to an equivalent Node.js module for %s.", c.Framework)
	}
}

// cleanGenerated strips a markdown fence a model sometimes wraps code in.
func cleanGenerated(code string) string {
	t := strings.TrimSpace(code)
	if !strings.HasPrefix(t, "```") {
		return code
	}
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t) + "\n"
}

func targetPath(mod extract.Module) string {
	switch analyzer.Category(mod.Kind) {
	case analyzer.CategoryEntity:
		return "models/" + mod.Name + ".js"
	case analyzer.CategoryRepository:
		return "repositories/" + mod.Name + ".js"
	case analyzer.CategoryService:
		return "services/" + mod.Name + ".js"
	case analyzer.CategoryController:
		return "routes/" + routeFileName(mod.Name) + ".js"
	case analyzer.CategoryConfig:
		return "config/" + mod.Name + ".js"
	default:
		return "lib/" + mod.Name + ".js"
	}
}

// UserController -> userRoutes
func routeFileName(name string) string {
	base := strings.TrimSuffix(name, "Controller")
	if base == "" {
		base = name
	}
	return strings.ToLower(base[:1]) + base[1:] + "Routes"
}
