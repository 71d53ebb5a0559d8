package reader

import (
	"context"
	"os"
	"strings"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// TextReader reads plain-text statements. Form feeds separate pages.
type TextReader struct{}

// Format returns the file extension handled.
func (p *TextReader) Format() string { return "txt" }

// Read loads the text file at doc.Path.
func (p *TextReader) Read(ctx context.Context, doc model.Document) (*model.DocumentContent, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, &faults.ExtractionError{Document: doc.ID, Err: err}
	}
	return ParseText(string(data)), ctx.Err()
}

// ParseText splits text into pages on form feeds.
func ParseText(text string) *model.DocumentContent {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\f")
	pages := make([]model.Page, len(parts))
	for i, p := range parts {
		pages[i] = model.Page{Number: i + 1, Text: p}
	}
	return &model.DocumentContent{Pages: pages, PageCount: len(pages)}
}
