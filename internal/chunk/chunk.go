package chunk

// Boundary records which split rule produced a chunk.
type Boundary string

const (
	// BoundaryWhole means the unit fit the budget and was not split.
	BoundaryWhole Boundary = "whole"
	// BoundaryClass marks a split at a type-level declaration.
	BoundaryClass Boundary = "class"
	// BoundaryMethod marks a split at a member-level boundary.
	BoundaryMethod Boundary = "method"
	// BoundarySize marks a fixed-size fallback split at a line or
	// whitespace boundary.
	BoundarySize Boundary = "size"
	// BoundarySignature marks interface mode: a group of method
	// signatures prefixed with the enclosing declaration.
	BoundarySignature Boundary = "signature"
)

// Chunk is one budget-respecting slice of a larger unit. For Split output,
// concatenating Text by ascending Seq reproduces the source exactly; the
// enclosing declaration needed to interpret a method-level chunk standalone
// travels in Context instead of Text so the partition stays lossless.
type Chunk struct {
	Seq             int
	Text            string
	Context         string
	Boundary        Boundary
	EstimatedTokens int
	// OverBudget flags the unsplittable-unit escape hatch: the chunk
	// exceeds the budget and could not be split further. Callers submit
	// it best-effort or reject it explicitly; the engine never truncates.
	OverBudget bool
}

// Unit is one independent input to batching.
type Unit struct {
	Name string
	Text string
}

// Batch groups small units for a single request. Unit order inside and
// across batches follows the input order.
type Batch struct {
	Units           []Unit
	EstimatedTokens int
	OverBudget      bool
}
