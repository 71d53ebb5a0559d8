package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// PDFReader extracts row-ordered page text from PDF statements.
// It does not detect tables, so every page takes the text path.
type PDFReader struct{}

// Format returns the file extension handled.
func (p *PDFReader) Format() string { return "pdf" }

// Read opens the PDF at doc.Path. A page that fails to decode carries
// its error in Page.Err instead of failing the document.
func (p *PDFReader) Read(ctx context.Context, doc model.Document) (content *model.DocumentContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = nil
			err = &faults.ExtractionError{Document: doc.ID, Err: fmt.Errorf("PDF library crashed: %v", r)}
		}
	}()

	f, r, err := pdf.Open(doc.Path)
	if err != nil {
		return nil, &faults.ExtractionError{Document: doc.ID, Err: err}
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, &faults.ExtractionError{Document: doc.ID, Err: fmt.Errorf("PDF has no pages")}
	}

	content = &model.DocumentContent{PageCount: numPages}
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return content, err
		}
		content.Pages = append(content.Pages, readPage(r, i))
	}
	return content, nil
}

func readPage(r *pdf.Reader, num int) (page model.Page) {
	page.Number = num
	defer func() {
		if rec := recover(); rec != nil {
			page.Text = ""
			page.Err = fmt.Errorf("decoding page: %v", rec)
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		page.Err = fmt.Errorf("page object missing")
		return page
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		page.Err = fmt.Errorf("reading rows: %w", err)
		return page
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, w := range row.Content {
			if s := strings.TrimSpace(w.S); s != "" {
				words = append(words, s)
			}
		}
		if len(words) > 0 {
			lines = append(lines, strings.Join(words, " "))
		}
	}
	page.Text = strings.Join(lines, "\n")
	return page
}
