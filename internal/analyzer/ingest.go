package analyzer

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Codebase is the consolidated view of every discovered source file: a
// summary header, a directory tree, and the full content with per-file
// markers. Converters look individual classes up by name instead of
// re-reading the disk.
type Codebase struct {
	Summary string
	Tree    string
	Content string

	spans map[string][2]int // class name -> [start, end) in Content
	files map[string]string // class name -> relative path
}

const fileMarker = "=== FILE: %s ==="

// Ingest reads every discovered file in full and consolidates the codebase.
// Unreadable files are skipped; the span index keys on class name.
func Ingest(repoName string, files []SourceFile) (*Codebase, error) {
	cb := &Codebase{
		spans: make(map[string][2]int, len(files)),
		files: make(map[string]string, len(files)),
	}

	counts := map[Category]int{}
	var content strings.Builder
	var readable int
	for _, f := range files {
		b, err := os.ReadFile(f.Path)
		if err != nil {
			continue
		}
		readable++
		counts[f.Category]++

		fmt.Fprintf(&content, fileMarker+"\n", f.RelPath)
		start := content.Len()
		content.Write(b)
		if len(b) == 0 || b[len(b)-1] != '\n' {
			content.WriteByte('\n')
		}
		if f.ClassName != "" {
			cb.spans[f.ClassName] = [2]int{start, content.Len()}
			cb.files[f.ClassName] = f.RelPath
		}
		content.WriteByte('\n')
	}
	if readable == 0 {
		return nil, fmt.Errorf("no readable source files in %s", repoName)
	}
	cb.Content = content.String()
	cb.Summary = buildSummary(repoName, readable, counts)
	cb.Tree = buildTree(files)
	return cb, nil
}

// Source returns the full text of one class by name.
func (cb *Codebase) Source(className string) (string, bool) {
	span, ok := cb.spans[className]
	if !ok {
		return "", false
	}
	return cb.Content[span[0]:span[1]], true
}

// PathOf returns the relative path a class was read from.
func (cb *Codebase) PathOf(className string) (string, bool) {
	p, ok := cb.files[className]
	return p, ok
}

// Classes lists indexed class names in stable order.
func (cb *Codebase) Classes() []string {
	names := make([]string, 0, len(cb.spans))
	for n := range cb.spans {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func buildSummary(repoName string, total int, counts map[Category]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\nSource files: %d\n", repoName, total)
	for _, cat := range Categories {
		if counts[cat] > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", cat, counts[cat])
		}
	}
	return b.String()
}

func buildTree(files []SourceFile) string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.RelPath)
	}
	sort.Strings(paths)
	return strings.Join(paths, "\n")
}
