package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// Header is the CSV header for ledger.csv.
const Header = "id,date,document,page,line,description,amount_text,direction,category,amount,confidence,method,hint"

const (
	numFields     = 13
	dateFormat    = "2006-01-02"
	colID         = 0
	colDate       = 1
	colDocument   = 2
	colPage       = 3
	colLine       = 4
	colDesc       = 5
	colAmountText = 6
	colDirection  = 7
	colCategory   = 8
	colAmount     = 9
	colConfidence = 10
	colMethod     = 11
	colHint       = 12
)

// ReadTransactions reads all rows from a ledger.csv reader.
func ReadTransactions(r io.Reader) ([]model.ClassifiedTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txns []model.ClassifiedTransaction
	for i, rec := range records[1:] {
		txn, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// WriteTransactions writes a ledger including the header.
func WriteTransactions(w io.Writer, txns []model.ClassifiedTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a transaction to a CSV row.
func MarshalTransaction(txn model.ClassifiedTransaction) []string {
	row := make([]string, numFields)
	row[colID] = txn.ID
	row[colDate] = txn.Date.Format(dateFormat)
	row[colDocument] = txn.DocumentID
	row[colPage] = strconv.Itoa(txn.Page)
	row[colLine] = strconv.Itoa(txn.Line)
	row[colDesc] = txn.Description
	row[colAmountText] = txn.AmountText
	row[colDirection] = string(txn.Direction)
	row[colCategory] = txn.Category
	row[colAmount] = txn.Amount.StringFixed(2)
	row[colConfidence] = strconv.FormatFloat(txn.Confidence, 'f', -1, 64)
	row[colMethod] = string(txn.Method)
	row[colHint] = string(txn.Hint)
	return row
}

// UnmarshalTransaction converts a CSV row to a transaction.
func UnmarshalTransaction(record []string) (model.ClassifiedTransaction, error) {
	if len(record) != numFields {
		return model.ClassifiedTransaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	page, err := strconv.Atoi(record[colPage])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing page %q: %w", record[colPage], err)
	}
	line, err := strconv.Atoi(record[colLine])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing line %q: %w", record[colLine], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}
	var confidence float64
	if record[colConfidence] != "" {
		confidence, err = strconv.ParseFloat(record[colConfidence], 64)
		if err != nil {
			return model.ClassifiedTransaction{}, fmt.Errorf("parsing confidence %q: %w", record[colConfidence], err)
		}
	}

	return model.ClassifiedTransaction{
		RawTransaction: model.RawTransaction{
			DocumentID:  record[colDocument],
			Page:        page,
			Line:        line,
			Description: record[colDesc],
			AmountText:  record[colAmountText],
			Date:        date,
			Hint:        model.Direction(record[colHint]),
			Method:      model.ExtractionMethod(record[colMethod]),
		},
		ID:         record[colID],
		Direction:  model.Direction(record[colDirection]),
		Category:   record[colCategory],
		Confidence: confidence,
		Amount:     amount,
	}, nil
}
