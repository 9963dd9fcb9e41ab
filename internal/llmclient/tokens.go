package llmclient

import "strings"

// Code averages roughly four characters per token across the providers we
// target. The estimate rounds up so a chunk that passes the budget check
// stays under the provider's real ceiling.
const charsPerToken = 4

// EstimateTokens returns a cheap, deterministic token estimate for text.
// It never undercounts by more than the charsPerToken rounding window.
func EstimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}
