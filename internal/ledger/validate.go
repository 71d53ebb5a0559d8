// Package ledger checks, deduplicates and stores classified transactions.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/id"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

var hundred = decimal.NewFromInt(100)

func locator(t model.ClassifiedTransaction) string {
	return id.FormatLocator(t.DocumentID, t.Page, t.Line)
}

// Validate checks each transaction: a date, a known direction, a
// non-negative amount with at most two decimal places, a category and a
// unique ID.
func Validate(txns []model.ClassifiedTransaction) []faults.ValidationError {
	var errs []faults.ValidationError
	add := func(t model.ClassifiedTransaction, format string, args ...any) {
		errs = append(errs, faults.ValidationError{Locator: locator(t), Reason: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool, len(txns))
	for _, t := range txns {
		if t.Date.IsZero() {
			add(t, "missing date")
		}
		if !t.Direction.Valid() {
			add(t, "unknown direction %q", t.Direction)
		}
		if t.Amount.IsNegative() {
			add(t, "amount %s is negative", t.Amount)
		}
		if scaled := t.Amount.Mul(hundred); !scaled.Equal(scaled.Floor()) {
			add(t, "amount %s has more than 2 decimal places", t.Amount)
		}
		if strings.TrimSpace(t.Category) == "" {
			add(t, "missing category")
		}
		if t.ID != "" {
			if seen[t.ID] {
				add(t, "duplicate id %s", t.ID)
			}
			seen[t.ID] = true
		}
	}
	return errs
}

// dedupeKey identifies the same bank movement across documents.
type dedupeKey struct {
	date      string
	amount    string
	direction model.Direction
	desc      string
}

func keyOf(t model.ClassifiedTransaction) dedupeKey {
	return dedupeKey{
		date:      t.Date.Format(dateFormat),
		amount:    t.Amount.StringFixed(2),
		direction: t.Direction,
		desc:      strings.Join(strings.Fields(strings.ToLower(t.Description)), " "),
	}
}

// occurrences counts one key's appearances per document, in first-seen order.
type occurrences struct {
	docs  []string
	count map[string]int
	first map[string]string
}

// coveredBy returns the first locator of an earlier-seen document that
// holds at least n occurrences, or "".
func (o *occurrences) coveredBy(doc string, n int) string {
	for _, other := range o.docs {
		if other != doc && o.count[other] >= n {
			return o.first[other]
		}
	}
	return ""
}

// Dedupe drops transactions that repeat one from another document, as
// happens with overlapping statements. Repeats within one document are
// kept beyond the count already seen elsewhere. The first occurrence wins.
// Each dropped transaction yields a ValidationError. txns is not modified.
func Dedupe(txns []model.ClassifiedTransaction) ([]model.ClassifiedTransaction, []faults.ValidationError) {
	seen := make(map[dedupeKey]*occurrences)
	out := make([]model.ClassifiedTransaction, 0, len(txns))
	var dropped []faults.ValidationError

	for _, t := range txns {
		k := keyOf(t)
		o := seen[k]
		if o == nil {
			o = &occurrences{count: make(map[string]int), first: make(map[string]string)}
			seen[k] = o
		}
		if _, ok := o.count[t.DocumentID]; !ok {
			o.docs = append(o.docs, t.DocumentID)
			o.first[t.DocumentID] = locator(t)
		}
		o.count[t.DocumentID]++

		if original := o.coveredBy(t.DocumentID, o.count[t.DocumentID]); original != "" {
			dropped = append(dropped, faults.ValidationError{
				Locator: locator(t),
				Reason:  fmt.Sprintf("duplicate of %s (%s %s %s)", original, k.date, k.direction, k.amount),
			})
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}
