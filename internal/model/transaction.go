package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the cash-flow side of a transaction.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Valid reports whether d is credit or debit.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// ExtractionMethod names the strategy that produced a RawTransaction.
type ExtractionMethod string

const (
	MethodTable ExtractionMethod = "table"
	MethodText  ExtractionMethod = "text"
	MethodAI    ExtractionMethod = "ai"
)

// RawTransaction is one statement line as read from a document.
type RawTransaction struct {
	DocumentID       string           `json:"document_id"`
	Page             int              `json:"page"`
	Line             int              `json:"line"`
	Description      string           `json:"description"`
	AmountText       string           `json:"amount_text"` // may be bracketed, e.g. "(1,500.00)"
	Date             time.Time        `json:"date"`
	Hint             Direction        `json:"hint,omitempty"` // set only by structured sources
	Method           ExtractionMethod `json:"method"`
	SourceConfidence float64          `json:"source_confidence"`
}

// ClassifiedTransaction is a RawTransaction with direction and category.
// It is never mutated after the classifier creates it.
type ClassifiedTransaction struct {
	RawTransaction
	ID         string          `json:"id"`
	Direction  Direction       `json:"direction"`
	Category   string          `json:"category"`
	Confidence float64         `json:"confidence"`
	Amount     decimal.Decimal `json:"amount"` // absolute value
}

// MonthKey returns the calendar month key, e.g. "2025-01".
func (t ClassifiedTransaction) MonthKey() string {
	return t.Date.Format("2006-01")
}
