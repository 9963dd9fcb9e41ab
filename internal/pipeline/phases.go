package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spring2node/internal/analyzer"
	"spring2node/internal/convert"
	"spring2node/internal/extract"
	"spring2node/internal/gen"
	"spring2node/internal/mapper"
)

// Phase is one named step of the conversion. Run mutates only the fields
// the phase owns; returning an error is fatal and stops the pipeline.
// Per-unit failures go to the state ledgers instead.
type Phase struct {
	Name string
	Run  func(ctx context.Context, s *State) error
}

// Components are the collaborators the standard phase list is built from.
type Components struct {
	Extractor *extract.Extractor
	Converter *convert.Converter
	Mapper    *mapper.Mapper
	Generator *gen.Generator
	Workers   int
	Log       *zap.Logger
}

// StandardPhases builds the fixed, total phase order.
func StandardPhases(c Components) []Phase {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return []Phase{
		{Name: "locate", Run: c.locate},
		{Name: "ingest", Run: c.ingest},
		{Name: "classify", Run: c.classify},
		{Name: "extract", Run: c.extractPhase},
		{Name: "map-deps", Run: c.mapDeps},
		{Name: "convert-models", Run: convertCategory(c, analyzer.CategoryEntity)},
		{Name: "convert-repositories", Run: convertCategory(c, analyzer.CategoryRepository)},
		{Name: "convert-services", Run: convertCategory(c, analyzer.CategoryService)},
		{Name: "convert-controllers", Run: convertCategory(c, analyzer.CategoryController)},
		{Name: "config", Run: c.migrateConfig},
		{Name: "assemble", Run: c.assemble},
		{Name: "validate", Run: c.validate},
	}
}

func (c Components) locate(ctx context.Context, s *State) error {
	dir, cloned, err := analyzer.Locate(ctx, s.Request.Source, c.Log)
	if err != nil {
		return fmt.Errorf("locate source: %w", err)
	}
	s.RepoDir, s.Cloned = dir, cloned
	return nil
}

func (c Components) ingest(ctx context.Context, s *State) error {
	files, err := analyzer.Discover(s.RepoDir, c.Log)
	if err != nil {
		return fmt.Errorf("discover sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no convertible source files under %s", s.RepoDir)
	}
	cb, err := analyzer.Ingest(filepath.Base(s.RepoDir), files)
	if err != nil {
		return fmt.Errorf("consolidate codebase: %w", err)
	}
	s.Files, s.Codebase = files, cb
	return nil
}

func (c Components) classify(ctx context.Context, s *State) error {
	s.Grouped = analyzer.ByCategory(s.Files)
	s.BuildSystem = analyzer.DetectBuildSystem(s.RepoDir)
	c.Log.Info("classified sources",
		zap.String("build_system", string(s.BuildSystem)),
		zap.Int("entities", len(s.Grouped[analyzer.CategoryEntity])),
		zap.Int("repositories", len(s.Grouped[analyzer.CategoryRepository])),
		zap.Int("services", len(s.Grouped[analyzer.CategoryService])),
		zap.Int("controllers", len(s.Grouped[analyzer.CategoryController])))
	return nil
}

func (c Components) extractPhase(ctx context.Context, s *State) error {
	units := convertibleFiles(s)
	outcomes := mapUnits(ctx, c.Workers, units, func(ctx context.Context, f analyzer.SourceFile) (extract.Extraction, error) {
		src, ok := s.Codebase.Source(f.ClassName)
		if !ok {
			return extract.Extraction{}, fmt.Errorf("no source indexed for %s", f.ClassName)
		}
		return c.Extractor.Extract(ctx, f.ClassName, string(f.Category), src)
	})
	for i, out := range outcomes {
		if !out.Attempted {
			continue
		}
		if out.Err != nil {
			s.AddError("extract %s: %v", units[i].ClassName, out.Err)
			continue
		}
		s.Modules = append(s.Modules, out.Value)
		s.Errors = append(s.Errors, out.Value.Diagnostics...)
	}
	return nil
}

func (c Components) mapDeps(ctx context.Context, s *State) error {
	s.Dependencies = analyzer.ParseDependencies(s.RepoDir, c.Log)
	s.Packages = c.Mapper.Map(s.Dependencies)
	return nil
}

// convertCategory converts every extracted module of one category through a
// bounded pool. One failed artifact never aborts the phase: failures land in
// the error ledger, safety hits in the safety-block ledger, and the stub
// artifact still ships.
func convertCategory(c Components, cat analyzer.Category) func(ctx context.Context, s *State) error {
	return func(ctx context.Context, s *State) error {
		var units []extract.Extraction
		for _, m := range s.Modules {
			if analyzer.Category(m.Module.Kind) == cat {
				units = append(units, m)
			}
		}
		type converted struct {
			art   convert.Artifact
			block *convert.SafetyBlock
		}
		outcomes := mapUnits(ctx, c.Workers, units, func(ctx context.Context, m extract.Extraction) (converted, error) {
			src, _ := s.Codebase.Source(m.Module.Name)
			art, block, err := c.Converter.Convert(ctx, m.Module, src)
			return converted{art: art, block: block}, err
		})
		for i, out := range outcomes {
			if !out.Attempted {
				continue
			}
			if out.Err != nil {
				s.AddError("convert %s: %v", units[i].Module.Name, out.Err)
			}
			if out.Value.block != nil {
				s.SafetyBlocks = append(s.SafetyBlocks, *out.Value.block)
			}
			if out.Value.art.Name != "" {
				s.Artifacts = append(s.Artifacts, out.Value.art)
			}
		}
		return nil
	}
}

func (c Components) migrateConfig(ctx context.Context, s *State) error {
	s.Config = gen.MigrateConfig(s.RepoDir, c.Log)
	if s.Config.Server.Port == 0 {
		s.Config.Server.Port = 3000
	}
	return nil
}

func (c Components) assemble(ctx context.Context, s *State) error {
	out := s.Request.OutputDir
	if out == "" {
		out = filepath.Join(os.TempDir(), "spring2node-"+uuid.NewString())
	}
	if err := c.Generator.Generate(out, projectName(s), s.Artifacts, s.Packages, s.Config); err != nil {
		return fmt.Errorf("assemble project: %w", err)
	}
	s.OutputDir = out
	return nil
}

func (c Components) validate(ctx context.Context, s *State) error {
	res := gen.Validate(s.OutputDir)
	s.Validation = &res
	for _, e := range res.Errors {
		s.AddError("validation: %s", e)
	}
	return nil
}

// convertibleFiles lists files worth extracting, in category conversion
// order so dependent artifacts follow their dependencies.
func convertibleFiles(s *State) []analyzer.SourceFile {
	var out []analyzer.SourceFile
	for _, cat := range analyzer.Categories {
		if cat == analyzer.CategoryOther || cat == analyzer.CategoryConfig {
			continue
		}
		out = append(out, s.Grouped[cat]...)
	}
	return out
}

func projectName(s *State) string {
	base := filepath.Base(s.RepoDir)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "converted-app"
	}
	return base
}
