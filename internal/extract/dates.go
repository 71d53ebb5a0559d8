package extract

import (
	"regexp"
	"strings"
	"time"
)

// datePattern matches a date at the start of a statement line.
type datePattern struct {
	re      *regexp.Regexp
	layout  string
	partial bool // no year; taken from the statement date
}

var datePatterns = []datePattern{
	{re: regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4})\b`), layout: "1/2/2006"},
	{re: regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2})\b`), layout: "1/2/06"},
	{re: regexp.MustCompile(`^(\d{1,2}-\d{1,2}-\d{4})\b`), layout: "1-2-2006"},
	{re: regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\b`), layout: "2006-01-02"},
	{re: regexp.MustCompile(`^([A-Za-z]{3}\s+\d{1,2},?\s+\d{4})\b`), layout: "Jan 2 2006"},
	{re: regexp.MustCompile(`^([A-Za-z]{4,9}\s+\d{1,2},?\s+\d{4})\b`), layout: "January 2 2006"},
	{re: regexp.MustCompile(`^(\d{1,2}/\d{1,2})\b`), layout: "1/2", partial: true},
}

var spaceRun = regexp.MustCompile(`\s+`)

// dateMatch is a date found at the start of a line.
type dateMatch struct {
	Date time.Time
	Text string
	// NoYear is set when the printed date has no year and no statement
	// date was available to supply one.
	NoYear bool
}

// matchDate finds a leading date in line. Dates without a year take the
// statement date's year, or the prior year when the month is after the
// statement month.
func matchDate(line string, statement time.Time) (dateMatch, bool) {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := m[1]
		norm := spaceRun.ReplaceAllString(strings.ReplaceAll(text, ",", ""), " ")
		d, err := time.Parse(p.layout, norm)
		if err != nil {
			continue
		}
		if p.partial {
			if statement.IsZero() {
				return dateMatch{Text: text, NoYear: true}, true
			}
			year := statement.Year()
			if d.Month() > statement.Month() {
				year--
			}
			d = time.Date(year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		}
		return dateMatch{Date: d, Text: text}, true
	}
	return dateMatch{}, false
}

// parseCellDate parses a table cell that should hold a whole date.
func parseCellDate(cell string, statement time.Time) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	m, ok := matchDate(cell, statement)
	if !ok || m.NoYear || len(m.Text) != len(cell) {
		return time.Time{}, false
	}
	return m.Date, true
}
