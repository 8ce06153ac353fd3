package chunker

import (
	"strings"
	"testing"
)

// TestSplitDocument_BasicHeaders tests section splitting with H1 and H2s.
func TestSplitDocument_BasicHeaders(t *testing.T) {
	input := `# Background

Overview of my career so far.

## Acme Corp

Worked on distributed systems.

## Globex

Led the platform team.
`

	md := NewMarkdown(DefaultSize, DefaultOverlap)
	sections, err := md.SplitDocument([]byte(input))
	if err != nil {
		t.Fatalf("SplitDocument failed: %v", err)
	}

	// Expect 3 sections: H1, H1>H2 Acme Corp, H1>H2 Globex
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}

	if !strings.HasPrefix(sections[0], "# Background") {
		t.Errorf("Section 0 missing header path, got %q", sections[0])
	}
	if !strings.Contains(sections[0], "Overview of my career") {
		t.Errorf("Section 0 missing expected content")
	}

	expectedPath := "# Background > ## Acme Corp"
	if !strings.HasPrefix(sections[1], expectedPath) {
		t.Errorf("Section 1: expected prefix %q, got %q", expectedPath, sections[1])
	}
	if !strings.Contains(sections[1], "distributed systems") {
		t.Errorf("Section 1 missing expected content")
	}

	expectedPath = "# Background > ## Globex"
	if !strings.HasPrefix(sections[2], expectedPath) {
		t.Errorf("Section 2: expected prefix %q, got %q", expectedPath, sections[2])
	}
}

// TestSplitDocument_NoHeaders verifies a header-free document falls back to
// plain-text windowing.
func TestSplitDocument_NoHeaders(t *testing.T) {
	input := "Just a plain paragraph without any markdown structure at all."

	md := NewMarkdown(DefaultSize, DefaultOverlap)
	sections, err := md.SplitDocument([]byte(input))
	if err != nil {
		t.Fatalf("SplitDocument failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if sections[0] != input {
		t.Errorf("Expected whole text back, got %q", sections[0])
	}
}

// TestSplitDocument_H3NotBoundary verifies H3 content stays inside its H2
// section.
func TestSplitDocument_H3NotBoundary(t *testing.T) {
	input := `# Projects

## Search Service

Built the query layer.

### Internals

Inverted index details.
`

	md := NewMarkdown(DefaultSize, DefaultOverlap)
	sections, err := md.SplitDocument([]byte(input))
	if err != nil {
		t.Fatalf("SplitDocument failed: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(sections))
	}

	svc := sections[1]
	if !strings.Contains(svc, "Inverted index details") {
		t.Errorf("H2 section should contain its H3 subsection, got %q", svc)
	}
}

// TestSplitDocument_OversizedSection verifies a section larger than the
// window is re-split with the header path preserved on every piece.
func TestSplitDocument_OversizedSection(t *testing.T) {
	body := strings.Repeat("A long sentence about the work. ", 20)
	input := "# History\n\n" + body

	md := NewMarkdown(100, 20)
	sections, err := md.SplitDocument([]byte(input))
	if err != nil {
		t.Fatalf("SplitDocument failed: %v", err)
	}
	if len(sections) < 2 {
		t.Fatalf("Expected the oversized section to split, got %d sections", len(sections))
	}
	for i, s := range sections {
		if !strings.HasPrefix(s, "# History") {
			t.Errorf("Section %d lost its header path: %q", i, s)
		}
	}
}
