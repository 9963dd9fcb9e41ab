package chunk

import (
	"regexp"
	"strings"

	"spring2node/internal/llmclient"
)

const (
	// DefaultMaxChunkTokens is safe for every provider adapter we ship.
	DefaultMaxChunkTokens = 8000
	// DefaultMaxBatchTokens bounds how many small units share one request.
	DefaultMaxBatchTokens = 80000

	// signaturesPerChunk is how many interface method signatures are
	// grouped per chunk in interface mode.
	signaturesPerChunk = 4

	// estimator inverse: budget tokens -> budget chars.
	charsPerToken = 4
)

var (
	reClassDecl = regexp.MustCompile(`^(public\s+)?(final\s+)?(abstract\s+)?(class|interface|enum)\s+\w+`)
	reInterface = regexp.MustCompile(`^(public\s+)?interface\s+\w+`)
	reSignature = regexp.MustCompile(`^(public\s+)?(abstract\s+)?(default\s+)?[\w<>\[\], ?]+\s+\w+\s*\(`)
)

// Engine splits one unit of text into a minimal ordered chunk sequence under
// a token budget, preferring type-level boundaries, then member-level
// boundaries, then fixed-size slicing. It also packs independent small units
// into batches. All estimation goes through Estimate, which defaults to the
// shared conservative length heuristic.
type Engine struct {
	MaxChunkTokens int
	MaxBatchTokens int
	Estimate       func(string) int
}

func NewEngine(maxChunkTokens, maxBatchTokens int) *Engine {
	if maxChunkTokens <= 0 {
		maxChunkTokens = DefaultMaxChunkTokens
	}
	if maxBatchTokens <= 0 {
		maxBatchTokens = DefaultMaxBatchTokens
	}
	return &Engine{
		MaxChunkTokens: maxChunkTokens,
		MaxBatchTokens: maxBatchTokens,
		Estimate:       llmclient.EstimateTokens,
	}
}

func (e *Engine) estimate(text string) int {
	if e.Estimate != nil {
		return e.Estimate(text)
	}
	return llmclient.EstimateTokens(text)
}

// Split partitions text into chunks. Concatenating the returned chunk texts
// by ascending Seq reproduces text exactly.
func (e *Engine) Split(text string) []Chunk {
	if est := e.estimate(text); est <= e.MaxChunkTokens {
		return []Chunk{{Seq: 0, Text: text, Boundary: BoundaryWhole, EstimatedTokens: est}}
	}

	var chunks []Chunk
	for _, seg := range splitAtOffsets(text, classBoundaryOffsets(text)) {
		if est := e.estimate(seg); est <= e.MaxChunkTokens {
			chunks = append(chunks, Chunk{Text: seg, Boundary: BoundaryClass, EstimatedTokens: est})
			continue
		}
		chunks = append(chunks, e.splitMembers(seg)...)
	}
	for i := range chunks {
		chunks[i].Seq = i
		if chunks[i].EstimatedTokens > e.MaxChunkTokens {
			chunks[i].OverBudget = true
		}
	}
	return chunks
}

// splitMembers cuts one over-budget type body at member ends, packing
// consecutive members while they stay under budget. The enclosing type
// declaration is attached as Context so each piece stays interpretable.
func (e *Engine) splitMembers(seg string) []Chunk {
	declCtx := typeDeclaration(seg)
	members := splitAtOffsets(seg, memberEndOffsets(seg))

	var out []Chunk
	var pending strings.Builder
	flush := func(boundary Boundary) {
		if pending.Len() == 0 {
			return
		}
		txt := pending.String()
		pending.Reset()
		out = append(out, Chunk{
			Text:            txt,
			Context:         declCtx,
			Boundary:        boundary,
			EstimatedTokens: e.estimate(txt),
		})
	}

	for _, m := range members {
		if e.estimate(m) > e.MaxChunkTokens {
			// One member alone busts the budget: emit what we have,
			// then size-slice the member.
			flush(BoundaryMethod)
			for _, piece := range e.sizeSlice(m) {
				out = append(out, Chunk{
					Text:            piece,
					Context:         declCtx,
					Boundary:        BoundarySize,
					EstimatedTokens: e.estimate(piece),
				})
			}
			continue
		}
		if pending.Len() > 0 && e.estimate(pending.String()+m) > e.MaxChunkTokens {
			flush(BoundaryMethod)
		}
		pending.WriteString(m)
	}
	flush(BoundaryMethod)
	return out
}

// sizeSlice is the last resort: cut at the nearest line boundary under the
// budget, falling back to whitespace, then to a hard cut. Content is never
// dropped.
func (e *Engine) sizeSlice(text string) []string {
	maxChars := e.MaxChunkTokens * charsPerToken
	if maxChars < 1 {
		return []string{text}
	}
	var pieces []string
	for len(text) > maxChars {
		cut := strings.LastIndexByte(text[:maxChars], '\n')
		if cut <= 0 {
			cut = lastSpace(text[:maxChars])
		}
		if cut <= 0 {
			cut = maxChars
		} else {
			cut++ // keep the delimiter with the leading piece
		}
		pieces = append(pieces, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == '\t' {
			return i
		}
	}
	return -1
}

// SplitInterface handles declaration-only units (Spring Data repositories):
// instead of size-driven splitting it groups a few method signatures per
// chunk, repeating the interface declaration in each so every chunk stands
// alone. This mode duplicates the declaration, so it is not a lossless
// partition; converters use it for signature extraction, not reassembly.
func (e *Engine) SplitInterface(text string) []Chunk {
	if est := e.estimate(text); est <= e.MaxChunkTokens {
		return []Chunk{{Seq: 0, Text: text, Boundary: BoundaryWhole, EstimatedTokens: est}}
	}

	decl, bodyStart := interfaceDeclaration(text)
	if decl == "" {
		return e.Split(text)
	}
	sigs := methodSignatures(text[bodyStart:])
	if len(sigs) == 0 {
		return e.Split(text)
	}

	var chunks []Chunk
	emit := func(group []string) {
		txt := decl + "\n" + strings.Join(group, "\n")
		chunks = append(chunks, Chunk{
			Text:            txt,
			Boundary:        BoundarySignature,
			EstimatedTokens: e.estimate(txt),
		})
	}
	for i := 0; i < len(sigs); i += signaturesPerChunk {
		group := sigs[i:min(i+signaturesPerChunk, len(sigs))]
		txt := decl + "\n" + strings.Join(group, "\n")
		if e.estimate(txt) > e.MaxChunkTokens && len(group) > 1 {
			mid := len(group) / 2
			emit(group[:mid])
			emit(group[mid:])
			continue
		}
		emit(group)
	}
	for i := range chunks {
		chunks[i].Seq = i
		if chunks[i].EstimatedTokens > e.MaxChunkTokens {
			chunks[i].OverBudget = true
		}
	}
	return chunks
}

// Batch packs independent units, each already within the chunk budget, into
// batches under the batch budget. Membership never reorders units. A unit
// that alone exceeds the batch budget becomes its own flagged batch.
func (e *Engine) Batch(units []Unit) []Batch {
	var batches []Batch
	var cur Batch
	flush := func() {
		if len(cur.Units) > 0 {
			batches = append(batches, cur)
			cur = Batch{}
		}
	}
	for _, u := range units {
		tokens := e.estimate(u.Text)
		if tokens > e.MaxBatchTokens {
			flush()
			batches = append(batches, Batch{Units: []Unit{u}, EstimatedTokens: tokens, OverBudget: true})
			continue
		}
		if cur.EstimatedTokens+tokens > e.MaxBatchTokens {
			flush()
		}
		cur.Units = append(cur.Units, u)
		cur.EstimatedTokens += tokens
	}
	flush()
	return batches
}

// Reassemble concatenates chunks by ascending sequence index.
func Reassemble(chunks []Chunk) string {
	ordered := make([]string, len(chunks))
	for _, c := range chunks {
		if c.Seq >= 0 && c.Seq < len(ordered) {
			ordered[c.Seq] = c.Text
		}
	}
	return strings.Join(ordered, "")
}

// --- boundary scanning ---

// lineSpans yields the [start, end) offset of every line including its
// trailing newline.
func lineSpans(text string) [][2]int {
	var spans [][2]int
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			spans = append(spans, [2]int{start, i + 1})
			start = i + 1
		}
	}
	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

// classBoundaryOffsets returns offsets of lines that open a new top-level
// type declaration. Brace counting is the same heuristic the source
// classifier uses; string literals containing braces can fool it, which is
// acceptable for a split hint.
func classBoundaryOffsets(text string) []int {
	var offsets []int
	depth := 0
	for _, sp := range lineSpans(text) {
		line := text[sp[0]:sp[1]]
		if depth == 0 && sp[0] > 0 && reClassDecl.MatchString(strings.TrimSpace(line)) {
			offsets = append(offsets, sp[0])
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}
	return offsets
}

// memberEndOffsets returns offsets just past lines that close a direct
// member of the enclosing type (brace depth falls back to 1).
func memberEndOffsets(text string) []int {
	var offsets []int
	depth := 0
	for _, sp := range lineSpans(text) {
		line := text[sp[0]:sp[1]]
		before := depth
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if before >= 2 && depth == 1 && sp[1] < len(text) {
			offsets = append(offsets, sp[1])
		}
	}
	return offsets
}

// splitAtOffsets cuts text at the given ascending offsets, producing a
// lossless partition.
func splitAtOffsets(text string, offsets []int) []string {
	if len(offsets) == 0 {
		return []string{text}
	}
	segs := make([]string, 0, len(offsets)+1)
	prev := 0
	for _, o := range offsets {
		if o <= prev || o >= len(text) {
			continue
		}
		segs = append(segs, text[prev:o])
		prev = o
	}
	segs = append(segs, text[prev:])
	return segs
}

// typeDeclaration returns the first type declaration line of seg, used as
// standalone context for member-level chunks.
func typeDeclaration(seg string) string {
	for _, sp := range lineSpans(seg) {
		line := strings.TrimSpace(seg[sp[0]:sp[1]])
		if reClassDecl.MatchString(line) {
			return strings.TrimSpace(strings.TrimSuffix(line, "{"))
		}
	}
	return ""
}

// interfaceDeclaration returns the declaration text (through the opening
// brace) and the offset where the body starts.
func interfaceDeclaration(text string) (string, int) {
	spans := lineSpans(text)
	for i, sp := range spans {
		if !reInterface.MatchString(strings.TrimSpace(text[sp[0]:sp[1]])) {
			continue
		}
		end := sp[1]
		// Declarations may wrap (generics, extends); collect until the
		// opening brace, bounded like the source analyzer.
		for j := i; j < len(spans) && j < i+10; j++ {
			end = spans[j][1]
			if strings.Contains(text[spans[j][0]:spans[j][1]], "{") {
				break
			}
		}
		return strings.TrimRight(text[sp[0]:end], "\n"), end
	}
	return "", 0
}

// methodSignatures collects declaration-only method signatures (ending in
// ';'), joining wrapped signatures into one entry.
func methodSignatures(body string) []string {
	var sigs []string
	var pending []string
	for _, sp := range lineSpans(body) {
		line := strings.TrimRight(body[sp[0]:sp[1]], "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "}" {
			continue
		}
		if len(pending) == 0 && !reSignature.MatchString(trimmed) {
			continue
		}
		pending = append(pending, line)
		if strings.HasSuffix(trimmed, ";") {
			sigs = append(sigs, strings.Join(pending, "\n"))
			pending = nil
		}
	}
	return sigs
}
