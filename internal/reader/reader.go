// Package reader turns statement files into page text and raw tables.
package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// Reader decodes one file format.
type Reader interface {
	Read(ctx context.Context, doc model.Document) (*model.DocumentContent, error)
	Format() string
}

// Registry holds readers keyed by file extension.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry creates an empty reader registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register adds a reader. Panics on duplicate format.
func (r *Registry) Register(rd Reader) {
	key := strings.ToLower(rd.Format())
	if _, ok := r.readers[key]; ok {
		panic("duplicate reader format: " + key)
	}
	r.readers[key] = rd
}

// Get returns the reader for format, or nil.
func (r *Registry) Get(format string) Reader {
	return r.readers[strings.ToLower(strings.TrimPrefix(format, "."))]
}

// Formats lists the registered formats.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.readers))
	for f := range r.readers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Read dispatches on the document's file extension.
func (r *Registry) Read(ctx context.Context, doc model.Document) (*model.DocumentContent, error) {
	ext := filepath.Ext(doc.Path)
	rd := r.Get(ext)
	if rd == nil {
		return nil, &faults.ExtractionError{Document: doc.ID, Err: fmt.Errorf("no reader for %q files", ext)}
	}
	return rd.Read(ctx, doc)
}

// DefaultRegistry returns a registry with all built-in readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVReader{})
	r.Register(&TextReader{})
	r.Register(&PDFReader{})
	return r
}

// processedDir is the subdirectory processed statements are moved to.
const processedDir = "processed"

// Scan returns the statements in dir that a registered reader can decode,
// sorted by name. A missing directory yields no documents.
func (r *Registry) Scan(dir string) ([]model.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading statements dir: %w", err)
	}

	var docs []model.Document
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if r.Get(filepath.Ext(e.Name())) == nil {
			continue
		}
		docs = append(docs, model.Document{
			ID:   e.Name(),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	return docs, nil
}

// MarkProcessed moves a statement from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
