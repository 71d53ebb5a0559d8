package extract

import (
	"strings"

	"github.com/vindicatenyc/vindicate-app/internal/classify"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// headerScanRows is how many leading rows may precede the header.
const headerScanRows = 3

var (
	dateHeaders   = []string{"trans date", "date", "posted"}
	descHeaders   = []string{"description", "desc", "transaction", "payee", "memo", "details"}
	amountHeaders = []string{"amount"}
	debitHeaders  = []string{"debit", "withdrawal", "out"}
	creditHeaders = []string{"credit", "deposit", "in"}
)

// columns are header positions; -1 means absent.
type columns struct {
	date, desc, amount, debit, credit int
}

func (c columns) split() bool { return c.debit >= 0 || c.credit >= 0 }

func (c columns) width() int {
	return max(c.date, c.desc, c.amount, c.debit, c.credit) + 1
}

// parseTables extracts transactions from every table on a page.
func parseTables(doc model.Document, page model.Page) Outcome {
	var txns []model.RawTransaction
	line := 0
	for _, tbl := range page.Tables {
		txns = append(txns, parseTable(doc, page.Number, tbl, line)...)
		line += len(tbl)
	}
	if len(txns) == 0 {
		return failed("page %d: %d tables yielded no transaction rows", page.Number, len(page.Tables))
	}
	return succeeded(txns)
}

// parseTable reads one table. lineBase offsets row numbers for pages with
// several tables.
func parseTable(doc model.Document, pageNum int, tbl model.Table, lineBase int) []model.RawTransaction {
	headerRow := -1
	var cols columns
	for i := 0; i < len(tbl) && i < headerScanRows; i++ {
		if c, ok := detectColumns(tbl[i]); ok {
			headerRow, cols = i, c
			break
		}
	}
	if headerRow < 0 {
		return nil
	}

	signed := !cols.split() && hasNegative(tbl[headerRow+1:], cols.amount)

	var out []model.RawTransaction
	for i := headerRow + 1; i < len(tbl); i++ {
		row := tbl[i]
		if len(row) < cols.width() {
			continue
		}
		date, ok := parseCellDate(row[cols.date], doc.StatementDate)
		if !ok {
			continue
		}
		desc := strings.TrimSpace(row[cols.desc])
		if desc == "" {
			continue
		}

		var amountText string
		var hint model.Direction
		if cols.split() {
			amountText, hint = splitAmount(row, cols)
		} else {
			amountText = strings.TrimSpace(row[cols.amount])
			if signed {
				hint = signHint(amountText)
			}
		}
		if amountText == "" {
			continue
		}
		if _, err := classify.ParseAmount(amountText); err != nil {
			continue
		}

		out = append(out, model.RawTransaction{
			DocumentID:       doc.ID,
			Page:             pageNum,
			Line:             lineBase + i + 1,
			Description:      desc,
			AmountText:       amountText,
			Date:             date,
			Hint:             hint,
			Method:           model.MethodTable,
			SourceConfidence: tableConfidence,
		})
	}
	return out
}

// detectColumns recognizes a header row. It needs a date, a description
// and either an amount or a debit/credit column.
func detectColumns(row []string) (columns, bool) {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.ToLower(strings.TrimSpace(c))
	}
	used := make(map[int]bool)
	c := columns{
		date: findColumn(cells, used, dateHeaders),
		desc: findColumn(cells, used, descHeaders),
	}
	c.debit = findColumn(cells, used, debitHeaders)
	c.credit = findColumn(cells, used, creditHeaders)
	c.amount = findColumn(cells, used, amountHeaders)
	if c.date < 0 || c.desc < 0 {
		return columns{}, false
	}
	if c.amount < 0 && !c.split() {
		return columns{}, false
	}
	if c.amount >= 0 && c.split() && (c.debit < 0 || c.credit < 0) {
		// a lone "Debit" or "Credit" next to Amount is a type column
		c.debit, c.credit = -1, -1
	}
	return c, true
}

// findColumn returns the first unused cell matching the highest-priority
// keyword. Short keywords must match a whole word.
func findColumn(cells []string, used map[int]bool, keywords []string) int {
	for _, kw := range keywords {
		for i, cell := range cells {
			if used[i] || !headerMatches(cell, kw) {
				continue
			}
			used[i] = true
			return i
		}
	}
	return -1
}

func headerMatches(cell, kw string) bool {
	if len(kw) >= 4 {
		return strings.Contains(cell, kw)
	}
	for _, w := range strings.FieldsFunc(cell, func(r rune) bool { return r == ' ' || r == '/' || r == '(' || r == ')' }) {
		if w == kw {
			return true
		}
	}
	return false
}

// splitAmount picks the populated debit or credit cell.
func splitAmount(row []string, c columns) (string, model.Direction) {
	if c.debit >= 0 {
		if v := strings.TrimSpace(row[c.debit]); nonZero(v) {
			return v, model.DirectionDebit
		}
	}
	if c.credit >= 0 {
		if v := strings.TrimSpace(row[c.credit]); nonZero(v) {
			return v, model.DirectionCredit
		}
	}
	return "", ""
}

func nonZero(text string) bool {
	if text == "" {
		return false
	}
	a, err := classify.ParseAmount(text)
	return err == nil && !a.Value.IsZero()
}

// hasNegative reports whether any cell in column col carries a minus sign.
func hasNegative(rows model.Table, col int) bool {
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		if a, err := classify.ParseAmount(row[col]); err == nil && a.Negative {
			return true
		}
	}
	return false
}

// signHint maps a signed amount to a direction. Bracketed amounts are left
// to the classifier's bracket policy.
func signHint(text string) model.Direction {
	a, err := classify.ParseAmount(text)
	if err != nil || a.Bracketed {
		return ""
	}
	if a.Negative {
		return model.DirectionDebit
	}
	return model.DirectionCredit
}
