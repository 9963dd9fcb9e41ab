package pipeline

import (
	"fmt"
	"strings"

	"spring2node/internal/analyzer"
	"spring2node/internal/convert"
	"spring2node/internal/extract"
	"spring2node/internal/gen"
	"spring2node/internal/mapper"
)

// Request is the input contract from the CLI/API collaborator.
type Request struct {
	Source    string `json:"source"`
	Profile   string `json:"profile,omitempty"`
	Framework string `json:"target_framework"`
	ORM       string `json:"orm"`
	OutputDir string `json:"output_dir,omitempty"`
}

var (
	validFrameworks = map[string]bool{convert.FrameworkExpress: true, convert.FrameworkNestJS: true}
	validORMs       = map[string]bool{convert.ORMSequelize: true, convert.ORMTypeORM: true}
)

// Validate rejects a malformed request before any phase runs.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if r.Framework == "" {
		r.Framework = convert.FrameworkExpress
	}
	if !validFrameworks[r.Framework] {
		return fmt.Errorf("unsupported target framework %q (supported: express, nestjs)", r.Framework)
	}
	if r.ORM == "" {
		r.ORM = convert.ORMSequelize
	}
	if !validORMs[r.ORM] {
		return fmt.Errorf("unsupported ORM %q (supported: sequelize, typeorm)", r.ORM)
	}
	return nil
}

// State is the single value threaded through all phases. The orchestrator
// owns it exclusively while a phase runs; a completed phase's fields are
// never rewritten by later phases, only the error and safety-block ledgers
// grow out of phase order.
type State struct {
	Request Request

	// locate
	RepoDir string
	Cloned  bool

	// ingest
	Files    []analyzer.SourceFile
	Codebase *analyzer.Codebase

	// classify
	Grouped     map[analyzer.Category][]analyzer.SourceFile
	BuildSystem analyzer.BuildSystem

	// extract
	Modules []extract.Extraction

	// map-deps
	Dependencies []analyzer.Dependency
	Packages     []mapper.NodePackage

	// convert phases
	Artifacts []convert.Artifact

	// config
	Config gen.AppConfig

	// assemble
	OutputDir string

	// validate
	Validation *gen.ValidationResult

	// Ledgers, append-only across all phases.
	Errors       []string
	SafetyBlocks []convert.SafetyBlock
}

// AddError appends one non-fatal diagnostic to the ledger.
func (s *State) AddError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// ModuleByName finds an extracted module.
func (s *State) ModuleByName(name string) (extract.Extraction, bool) {
	for _, m := range s.Modules {
		if m.Module.Name == name {
			return m, true
		}
	}
	return extract.Extraction{}, false
}
