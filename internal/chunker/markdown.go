package chunker

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Markdown splits markdown documents at H1/H2 boundaries, prepending the
// header hierarchy to each section for retrieval context. Sections larger
// than the configured window are re-split with the plain-text chunker.
type Markdown struct {
	parser  goldmark.Markdown
	size    int
	overlap int
}

// NewMarkdown creates a markdown chunker. Oversized sections fall back to
// Split(size, overlap).
func NewMarkdown(size, overlap int) *Markdown {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Markdown{parser: md, size: size, overlap: overlap}
}

// SplitDocument chunks a markdown document. A document without headers is
// handled like plain text.
func (m *Markdown) SplitDocument(source []byte) ([]string, error) {
	reader := text.NewReader(source)
	doc := m.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2), // split at H1 and H2 only
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	if len(tree.Items) == 0 {
		return Split(string(source), m.size, m.overlap)
	}

	var sections []string
	if err := m.extract(doc, source, tree.Items, nil, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// extract walks TOC items collecting section content with header paths.
func (m *Markdown) extract(doc ast.Node, source []byte, items toc.Items, ancestors []string, out *[]string) error {
	for i, item := range items {
		path := append(ancestors, string(item.Title))
		headerPath := formatHeaderPath(path)

		headerNode := findHeaderByID(doc, string(item.ID))
		if headerNode == nil {
			continue
		}

		startLine := headerNode.Lines().At(0)
		var endLine text.Segment
		if i+1 < len(items) {
			if next := findHeaderByID(doc, string(items[i+1].ID)); next != nil {
				endLine = next.Lines().At(0)
			}
		} else {
			endLine = findNextHeaderBoundary(doc, headerNode, headerNode.(*ast.Heading).Level)
		}

		content := extractContent(source, startLine, endLine)
		section := fmt.Sprintf("%s\n\n%s", headerPath, content)

		if len(section) > m.size {
			// Oversized sections get re-windowed; each piece keeps the
			// header path so retrieval context survives the split.
			pieces, err := Split(content, m.size, m.overlap)
			if err != nil {
				return err
			}
			for _, p := range pieces {
				*out = append(*out, fmt.Sprintf("%s\n\n%s", headerPath, p))
			}
		} else {
			*out = append(*out, section)
		}

		if len(item.Items) > 0 {
			if err := m.extract(doc, source, item.Items, path, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatHeaderPath builds a header hierarchy string.
// Example: ["Experience", "Acme Corp"] -> "# Experience > ## Acme Corp"
func formatHeaderPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	var parts []string
	for i, segment := range path {
		prefix := strings.Repeat("#", i+1)
		parts = append(parts, fmt.Sprintf("%s %s", prefix, segment))
	}
	return strings.Join(parts, " > ")
}

// findHeaderByID locates a heading node by its auto-generated ID.
func findHeaderByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			headingID, ok := heading.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// findNextHeaderBoundary finds the next heading at the same or higher level
// after the given node.
func findNextHeaderBoundary(root ast.Node, current ast.Node, currentLevel int) text.Segment {
	var nextHeader ast.Node
	foundCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if !foundCurrent {
				if n == current {
					foundCurrent = true
				}
				return ast.WalkContinue, nil
			}
			if heading.Level <= currentLevel {
				nextHeader = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})

	if nextHeader != nil {
		return nextHeader.Lines().At(0)
	}
	return text.Segment{}
}

// extractContent extracts text between start and end line segments.
func extractContent(source []byte, start text.Segment, end text.Segment) string {
	var buf bytes.Buffer
	if end.Start == 0 && end.Stop == 0 {
		buf.Write(source[start.Start:])
	} else {
		buf.Write(source[start.Start:end.Start])
	}
	return strings.TrimSpace(buf.String())
}
