package convert

import "strings"

// SafetyBlock records one generated span that failed post-generation
// screening. Blocks are append-only: created here, reported in the final
// state, never deleted.
type SafetyBlock struct {
	Artifact string
	Reason   string
	Span     string
}

// Reason codes for safety blocks.
const (
	ReasonProviderBlocked = "provider_blocked"
	ReasonUnbalanced      = "unbalanced_delimiters"
	ReasonPlaceholder     = "placeholder_markers"
	ReasonTruncated       = "truncated_output"
	ReasonEmpty           = "empty_output"
)

// Marker phrases a broken completion leaves behind in place of real code.
var placeholderMarkers = []string{
	"YOUR_CODE_HERE",
	"INSERT CODE HERE",
	"rest of the code remains",
	"remaining code omitted",
	"... (truncated)",
	"[IMPLEMENTATION]",
}

// Detect scans generated code for known failure signatures and returns a
// block describing the first hit, or nil when the code looks whole. The
// checks are deliberately cheap: real validation happens when the emitted
// project is run, this only catches output too broken to be worth writing.
func Detect(artifact, code string) *SafetyBlock {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return &SafetyBlock{Artifact: artifact, Reason: ReasonEmpty}
	}

	for _, marker := range placeholderMarkers {
		if idx := strings.Index(code, marker); idx >= 0 {
			return &SafetyBlock{Artifact: artifact, Reason: ReasonPlaceholder, Span: snippet(code, idx)}
		}
	}

	if open, close := strings.Count(code, "{"), strings.Count(code, "}"); open != close {
		return &SafetyBlock{
			Artifact: artifact,
			Reason:   ReasonUnbalanced,
			Span:     tail(trimmed),
		}
	}
	if open, close := strings.Count(code, "("), strings.Count(code, ")"); open != close {
		return &SafetyBlock{
			Artifact: artifact,
			Reason:   ReasonUnbalanced,
			Span:     tail(trimmed),
		}
	}

	// Output sheared off at the token ceiling: no statement terminator at
	// the end.
	last := trimmed[len(trimmed)-1]
	switch last {
	case '}', ';', ')', '`':
	default:
		return &SafetyBlock{Artifact: artifact, Reason: ReasonTruncated, Span: tail(trimmed)}
	}
	return nil
}

func snippet(code string, idx int) string {
	end := idx + 80
	if end > len(code) {
		end = len(code)
	}
	return code[idx:end]
}

func tail(code string) string {
	if len(code) <= 80 {
		return code
	}
	return code[len(code)-80:]
}
