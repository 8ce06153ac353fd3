// Package knowledge loads the personal knowledge base from a fixed
// directory layout: linkedin.pdf and summary.txt at the root, plus any
// additional PDF, text, or markdown documents under docs/.
package knowledge

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known relative paths within the knowledge directory.
const (
	LinkedInFile = "linkedin.pdf"
	SummaryFile  = "summary.txt"
	ExtraDir     = "docs"
)

// ErrMissingSource marks a required profile document that could not be read.
// It is fatal at startup, not a recoverable runtime condition.
var ErrMissingSource = errors.New("required source document missing")

// Format distinguishes how a document's text should be chunked.
type Format int

const (
	FormatText Format = iota
	FormatMarkdown
)

// Document is a loaded source document. It is immutable and discarded once
// chunked.
type Document struct {
	Source string // path relative to the knowledge directory
	Text   string
	Format Format
}

// Base holds everything loaded from the knowledge directory.
type Base struct {
	Summary   string     // contents of summary.txt, also used by the persona prompt
	LinkedIn  string     // extracted text of linkedin.pdf
	Documents []Document // all documents, required ones first, extras sorted by name
}

// Load reads the knowledge directory. The two well-known documents are
// required; extras are optional and unknown file types are ignored.
func Load(dir string, logger *slog.Logger) (*Base, error) {
	if logger == nil {
		logger = slog.Default()
	}

	linkedin, err := extractPDF(filepath.Join(dir, LinkedInFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingSource, LinkedInFile, err)
	}

	summaryBytes, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingSource, SummaryFile, err)
	}
	summary := strings.TrimSpace(string(summaryBytes))

	base := &Base{
		Summary:  summary,
		LinkedIn: linkedin,
		Documents: []Document{
			{Source: LinkedInFile, Text: linkedin, Format: FormatText},
			{Source: SummaryFile, Text: summary, Format: FormatText},
		},
	}

	extras, err := loadExtras(dir, logger)
	if err != nil {
		return nil, err
	}
	base.Documents = append(base.Documents, extras...)

	logger.Info("knowledge base loaded", "dir", dir, "documents", len(base.Documents))
	return base, nil
}

// loadExtras reads optional documents from the docs/ subdirectory.
// A missing directory is fine; unreadable individual files are skipped with
// a warning so one bad extra cannot block startup.
func loadExtras(dir string, logger *slog.Logger) ([]Document, error) {
	extraDir := filepath.Join(dir, ExtraDir)
	entries, err := os.ReadDir(extraDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read extras dir %s: %w", extraDir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(extraDir, name)
		rel := filepath.Join(ExtraDir, name)

		var (
			text   string
			format Format
		)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			text, err = extractPDF(path)
			format = FormatText
		case ".txt":
			var b []byte
			b, err = os.ReadFile(path)
			text, format = string(b), FormatText
		case ".md":
			var b []byte
			b, err = os.ReadFile(path)
			text, format = string(b), FormatMarkdown
		default:
			continue // non-matching file types are ignored
		}
		if err != nil {
			logger.Warn("skipping unreadable extra document", "path", rel, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, Document{Source: rel, Text: text, Format: format})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Source < docs[j].Source })
	return docs, nil
}
