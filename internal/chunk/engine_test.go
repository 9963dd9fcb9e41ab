package chunk

import (
	"fmt"
	"strings"
	"testing"
)

// javaClass builds a well-formed class body padded to size chars.
func javaClass(name string, size int) string {
	header := "class " + name + " {\n"
	footer := "}\n"
	pad := size - len(header) - len(footer)
	if pad < 1 {
		pad = 1
	}
	return header + strings.Repeat("x", pad-1) + "\n" + footer
}

func TestSplit_WholeUnitUnderBudget(t *testing.T) {
	e := NewEngine(8000, 0)
	text := javaClass("Order", 400)
	chunks := e.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Boundary != BoundaryWhole || chunks[0].Text != text {
		t.Fatalf("unexpected chunk: %+v", chunks[0])
	}
}

func TestSplit_ClassBoundaries(t *testing.T) {
	// 50,000 estimated tokens with a class boundary every 6,000 tokens:
	// eight full classes plus a 2,000-token tail, nine chunks in all.
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString(javaClass(fmt.Sprintf("Svc%d", i), 6000*4))
	}
	b.WriteString(javaClass("Tail", 2000*4))
	text := b.String()

	e := NewEngine(8000, 0)
	chunks := e.Split(text)
	if len(chunks) != 9 {
		t.Fatalf("expected 9 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.EstimatedTokens > 8000 {
			t.Fatalf("chunk %d over budget: %d tokens", c.Seq, c.EstimatedTokens)
		}
		if c.Boundary != BoundaryClass {
			t.Fatalf("chunk %d boundary = %s", c.Seq, c.Boundary)
		}
	}
	if Reassemble(chunks) != text {
		t.Fatal("reassembled text differs from input")
	}
}

func TestSplit_MemberLevelKeepsContext(t *testing.T) {
	// One class whose methods together exceed the budget.
	var b strings.Builder
	b.WriteString("public class OrderService {\n")
	for i := 0; i < 6; i++ {
		b.WriteString(fmt.Sprintf("    public void handle%d() {\n        %s\n    }\n", i, strings.Repeat("y", 300)))
	}
	b.WriteString("}\n")
	text := b.String()

	e := NewEngine(100, 0)
	chunks := e.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected a member-level split, got %d chunks", len(chunks))
	}
	if Reassemble(chunks) != text {
		t.Fatal("member split is not lossless")
	}
	for _, c := range chunks {
		if c.Boundary == BoundaryMethod && c.Context != "public class OrderService" {
			t.Fatalf("chunk %d missing enclosing declaration, got %q", c.Seq, c.Context)
		}
	}
}

func TestSplit_SizeFallbackIsLossless(t *testing.T) {
	// No class or member boundaries at all: one giant blob.
	text := strings.Repeat("lorem ipsum dolor ", 4000)
	e := NewEngine(500, 0)
	chunks := e.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected size slicing, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if c.OverBudget {
			t.Fatalf("chunk %d flagged over budget after slicing", c.Seq)
		}
	}
	if Reassemble(chunks) != text {
		t.Fatal("size slicing dropped content")
	}
}

func TestSplit_UnsplittableUnitFlagged(t *testing.T) {
	// A single unbreakable token longer than the char budget.
	text := strings.Repeat("z", 200)
	e := NewEngine(10, 0)
	chunks := e.Split(text)
	total := 0
	for _, c := range chunks {
		total += len(c.Text)
	}
	if total != len(text) {
		t.Fatalf("content truncated: %d of %d chars", total, len(text))
	}
	// Hard cuts keep every piece within the char budget here, so nothing
	// should be flagged; a piece is flagged only when it cannot be cut.
	if Reassemble(chunks) != text {
		t.Fatal("hard cut is not lossless")
	}
}

func TestSplitInterface_GroupsSignatures(t *testing.T) {
	var b strings.Builder
	b.WriteString("public interface OrderRepository {\n")
	for i := 0; i < 10; i++ {
		b.WriteString(fmt.Sprintf("    List<Order> findByStatus%d(String status, String region, Pageable page, Sort sort);\n", i))
	}
	b.WriteString("}\n")
	text := b.String()

	e := NewEngine(200, 0)
	chunks := e.SplitInterface(text)
	// 10 signatures at 4 per chunk: 4 + 4 + 2.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 signature chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.Boundary != BoundarySignature {
			t.Fatalf("chunk %d boundary = %s", c.Seq, c.Boundary)
		}
		if !strings.HasPrefix(c.Text, "public interface OrderRepository {") {
			t.Fatalf("chunk %d lost the declaration prefix:\n%s", c.Seq, c.Text)
		}
	}
	if !strings.Contains(chunks[2].Text, "findByStatus9") {
		t.Fatal("last signature missing from final chunk")
	}
}

func TestSplitInterface_SmallUnitStaysWhole(t *testing.T) {
	text := "public interface Ping {\n    String ping();\n}\n"
	e := NewEngine(8000, 0)
	chunks := e.SplitInterface(text)
	if len(chunks) != 1 || chunks[0].Boundary != BoundaryWhole {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestBatch_PreservesOrderAndBudget(t *testing.T) {
	units := []Unit{
		{Name: "a", Text: strings.Repeat("a", 120)}, // 30 tokens
		{Name: "b", Text: strings.Repeat("b", 120)},
		{Name: "c", Text: strings.Repeat("c", 120)},
		{Name: "d", Text: strings.Repeat("d", 120)},
	}
	e := NewEngine(8000, 70)
	batches := e.Batch(units)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	var seen []string
	for _, b := range batches {
		if b.EstimatedTokens > 70 {
			t.Fatalf("batch over budget: %d", b.EstimatedTokens)
		}
		for _, u := range b.Units {
			seen = append(seen, u.Name)
		}
	}
	if strings.Join(seen, "") != "abcd" {
		t.Fatalf("batching reordered units: %v", seen)
	}
}

func TestBatch_OversizedUnitIsolatedAndFlagged(t *testing.T) {
	units := []Unit{
		{Name: "small", Text: "tiny"},
		{Name: "huge", Text: strings.Repeat("h", 4000)}, // 1000 tokens
		{Name: "after", Text: "tiny"},
	}
	e := NewEngine(8000, 100)
	batches := e.Batch(units)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if !batches[1].OverBudget || batches[1].Units[0].Name != "huge" {
		t.Fatalf("oversized unit not isolated: %+v", batches[1])
	}
	if batches[0].OverBudget || batches[2].OverBudget {
		t.Fatal("sibling batches wrongly flagged")
	}
}
