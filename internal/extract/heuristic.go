package extract

import (
	"regexp"
	"strings"
)

var (
	reHeurClass   = regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:final\s+)?(?:abstract\s+)?(class|interface|enum)\s+(\w+)`)
	reHeurMethod  = regexp.MustCompile(`(?m)^\s*(?:public|protected|private)\s+(?:static\s+)?(?:final\s+)?[\w<>\[\], ?]+\s+(\w+)\s*\(([^)]*)\)`)
	reHeurImport  = regexp.MustCompile(`(?m)^import\s+([\w.]+);`)
	reHeurAutowir = regexp.MustCompile(`(?m)@Autowired\s+(?:private\s+)?(\w+)\s+\w+;`)
)

// Heuristic derives a module purely from structural parsing, with no
// completion call. It is the terminal fallback of the quality gate: always
// succeeds, marked so consumers can tell it apart from model output.
func Heuristic(name, kind, source string) Module {
	mod := Module{Name: name, Kind: kind}

	if m := reHeurClass.FindStringSubmatch(source); m != nil {
		if mod.Name == "" {
			mod.Name = m[2]
		}
		mod.Description = "Structurally parsed " + m[1] + " " + m[2] + " with " + kindSummary(kind)
	} else {
		mod.Description = "Structurally parsed source unit " + name
	}

	for _, m := range reHeurMethod.FindAllStringSubmatch(source, -1) {
		methodName := m[1]
		if methodName == mod.Name {
			continue // constructor
		}
		mod.Methods = append(mod.Methods, Method{
			Name:        methodName,
			Signature:   methodName + "(" + strings.TrimSpace(m[2]) + ")",
			Description: "Parsed from source structure",
			Complexity:  "Medium",
		})
	}

	seen := map[string]bool{}
	for _, m := range reHeurImport.FindAllStringSubmatch(source, -1) {
		pkg := m[1]
		if strings.HasPrefix(pkg, "java.") || strings.HasPrefix(pkg, "javax.") ||
			strings.HasPrefix(pkg, "jakarta.") || strings.HasPrefix(pkg, "org.springframework.") ||
			strings.HasPrefix(pkg, "lombok") {
			continue
		}
		if last := pkg[strings.LastIndexByte(pkg, '.')+1:]; !seen[last] {
			mod.Dependencies = append(mod.Dependencies, last)
			seen[last] = true
		}
	}
	for _, m := range reHeurAutowir.FindAllStringSubmatch(source, -1) {
		if !seen[m[1]] {
			mod.Dependencies = append(mod.Dependencies, m[1])
			seen[m[1]] = true
		}
	}
	return mod
}

func kindSummary(kind string) string {
	switch kind {
	case "controller":
		return "request handling endpoints"
	case "service":
		return "business logic methods"
	case "repository":
		return "data access operations"
	case "entity":
		return "persistent fields"
	case "config":
		return "configuration settings"
	default:
		return "its declared members"
	}
}
