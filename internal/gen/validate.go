package gen

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ValidationResult is the structural check outcome for a generated project.
// Errors make the project invalid; warnings do not.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Stats    map[string]int `json:"stats"`
}

var requiredDirs = []string{"models", "repositories", "services", "routes"}

// Validate checks the generated tree for the pieces a runnable project
// needs: a parseable package.json with dependencies, a server entry,
// the component directories, and env/config files.
func Validate(projectPath string) ValidationResult {
	res := ValidationResult{Stats: map[string]int{}}

	if _, err := os.Stat(projectPath); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("project path does not exist: %s", projectPath))
		return res
	}

	pkgPath := filepath.Join(projectPath, "package.json")
	if b, err := os.ReadFile(pkgPath); err != nil {
		res.Errors = append(res.Errors, "package.json not found")
	} else {
		var manifest struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		if err := json.Unmarshal(b, &manifest); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid package.json: %v", err))
		} else if len(manifest.Dependencies) == 0 {
			res.Warnings = append(res.Warnings, "no dependencies in package.json")
		}
	}

	if _, err := os.Stat(filepath.Join(projectPath, "server.js")); err != nil {
		res.Errors = append(res.Errors, "server.js not found")
	}

	for _, dir := range requiredDirs {
		entries, err := os.ReadDir(filepath.Join(projectPath, dir))
		if err != nil {
			res.Warnings = append(res.Warnings, dir+"/ directory not found")
			continue
		}
		var jsFiles int
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".js") {
				jsFiles++
			}
		}
		res.Stats[dir] = jsFiles
		if jsFiles == 0 {
			res.Warnings = append(res.Warnings, dir+"/ directory is empty")
		}
	}

	var total int
	filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && (d.Name() == "node_modules" || d.Name() == ".git") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".js") {
			total++
		}
		return nil
	})
	res.Stats["total_files"] = total

	if _, err := os.Stat(filepath.Join(projectPath, ".env")); err != nil {
		res.Warnings = append(res.Warnings, ".env file not found")
	}
	if _, err := os.Stat(filepath.Join(projectPath, "config", "database.js")); err != nil {
		res.Warnings = append(res.Warnings, "config/database.js not found")
	}

	res.Valid = len(res.Errors) == 0
	return res
}
