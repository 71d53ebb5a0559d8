package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// CSVReader reads bank CSV exports as a single page holding one table.
type CSVReader struct{}

// Format returns the file extension handled.
func (p *CSVReader) Format() string { return "csv" }

// Read loads the CSV file at doc.Path.
func (p *CSVReader) Read(ctx context.Context, doc model.Document) (*model.DocumentContent, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, &faults.ExtractionError{Document: doc.ID, Err: err}
	}
	defer f.Close()

	content, err := ParseCSV(f)
	if err != nil {
		return nil, &faults.ExtractionError{Document: doc.ID, Err: err}
	}
	return content, ctx.Err()
}

// ParseCSV converts CSV rows into one page. Rows may have differing widths.
func ParseCSV(r io.Reader) (*model.DocumentContent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	table := make(model.Table, 0, len(records))
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(rec))
		for i, cell := range rec {
			row[i] = strings.TrimSpace(cell)
		}
		if isBlank(row) {
			continue
		}
		table = append(table, row)
		lines = append(lines, strings.Join(row, "  "))
	}

	page := model.Page{Number: 1, Text: strings.Join(lines, "\n")}
	if len(table) > 0 {
		page.Tables = []model.Table{table}
	}
	return &model.DocumentContent{Pages: []model.Page{page}, PageCount: 1}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
