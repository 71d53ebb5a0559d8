package chart

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

const (
	numFields    = 3
	colCategory  = 0
	colAllowance = 1
	colDesc      = 2
)

// ReadMappings reads a chart CSV.
func ReadMappings(r io.Reader) ([]Mapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chart CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var mappings []Mapping
	for i, rec := range records[1:] {
		m, err := UnmarshalMapping(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// WriteMappings writes a chart CSV including the header.
func WriteMappings(w io.Writer, mappings []Mapping) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"category", "allowance", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, m := range mappings {
		if err := cw.Write(MarshalMapping(m)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalMapping converts a mapping to a CSV row.
func MarshalMapping(m Mapping) []string {
	row := make([]string, numFields)
	row[colCategory] = m.Category
	row[colAllowance] = string(m.Allowance)
	row[colDesc] = m.Description
	return row
}

// UnmarshalMapping converts a CSV row to a mapping.
func UnmarshalMapping(record []string) (Mapping, error) {
	if len(record) != numFields {
		return Mapping{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	category := strings.TrimSpace(record[colCategory])
	if category == "" {
		return Mapping{}, fmt.Errorf("empty category")
	}
	return Mapping{
		Category:    category,
		Allowance:   model.ExpenseCategory(strings.TrimSpace(record[colAllowance])),
		Description: record[colDesc],
	}, nil
}
