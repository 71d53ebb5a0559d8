package extract

import (
	"regexp"
	"strings"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

const (
	minLineLen = 10
	minDescLen = 3
)

// trailingAmount matches the amount at the end of a statement line.
var trailingAmount = regexp.MustCompile(`(?i)(\()?-?\$?[\d,]+\.\d{2}(\))?-?(\s*(?:CR|DR))?\s*$`)

// parseText scans page text for lines that start with a date and end with
// an amount. It also returns how many dated lines lacked a year.
func parseText(doc model.Document, page model.Page) (Outcome, int) {
	var txns []model.RawTransaction
	noYear := 0
	for i, line := range strings.Split(page.Text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineLen {
			continue
		}
		dm, ok := matchDate(line, doc.StatementDate)
		if !ok {
			continue
		}
		loc := trailingAmount.FindStringIndex(line)
		if loc == nil || loc[0] < len(dm.Text) {
			continue
		}
		desc := strings.TrimSpace(line[len(dm.Text):loc[0]])
		if len(desc) < minDescLen {
			continue
		}
		if dm.NoYear {
			noYear++
			continue
		}
		txns = append(txns, model.RawTransaction{
			DocumentID:       doc.ID,
			Page:             page.Number,
			Line:             i + 1,
			Description:      desc,
			AmountText:       strings.TrimSpace(line[loc[0]:loc[1]]),
			Date:             dm.Date,
			Method:           model.MethodText,
			SourceConfidence: textConfidence,
		})
	}
	if len(txns) == 0 {
		return failed("page %d: no transaction lines matched", page.Number), noYear
	}
	return succeeded(txns), noYear
}
