package extract

import (
	"fmt"
	"strings"
)

// Minimum-content thresholds for accepting a model-produced module.
const (
	minModuleDescription = 30
	minMethodDescription = 5
)

var validComplexity = map[string]bool{
	"Low":    true,
	"Medium": true,
	"High":   true,
}

// placeholder phrases a lazy completion pads descriptions with.
var placeholderPhrases = []string{
	"auto-extracted",
	"unknown",
}

// ValidateModule applies the minimum-content rules and returns one problem
// string per violation. An empty slice means the module is accepted.
func ValidateModule(m Module) []string {
	var problems []string

	desc := strings.TrimSpace(m.Description)
	switch {
	case len(desc) < minModuleDescription:
		problems = append(problems, fmt.Sprintf("description too short (%d chars, need %d)", len(desc), minModuleDescription))
	case isPlaceholder(desc, m.Name):
		problems = append(problems, "description is a placeholder")
	}

	for i, mt := range m.Methods {
		label := mt.Name
		if label == "" {
			label = fmt.Sprintf("method[%d]", i)
			problems = append(problems, label+" has no name")
		}
		if strings.TrimSpace(mt.Signature) == "" {
			problems = append(problems, label+" has no signature")
		}
		mdesc := strings.TrimSpace(mt.Description)
		if len(mdesc) < minMethodDescription || strings.EqualFold(mdesc, mt.Name+" method") {
			problems = append(problems, label+" has no usable description")
		}
		if !validComplexity[mt.Complexity] {
			problems = append(problems, fmt.Sprintf("%s complexity %q is not Low/Medium/High", label, mt.Complexity))
		}
	}
	return problems
}

func isPlaceholder(desc, name string) bool {
	lower := strings.ToLower(desc)
	for _, p := range placeholderPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	// "OrderService class" and friends carry no information.
	if name != "" && strings.EqualFold(desc, name+" class") {
		return true
	}
	return false
}
