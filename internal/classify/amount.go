package classify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a parsed statement amount. Value is always non-negative.
type Amount struct {
	Value        decimal.Decimal
	Bracketed    bool // "(1,500.00)"
	Negative     bool // "-1,500.00" or "1,500.00-"
	CreditMarker bool // "1,500.00 CR"
	DebitMarker  bool // "1,500.00 DR"
}

// ParseAmount parses amounts as printed on statements: currency symbols,
// thousands separators, parentheses, signs and CR/DR suffixes.
func ParseAmount(text string) (Amount, error) {
	var a Amount
	s := strings.ToUpper(strings.TrimSpace(text))

	switch {
	case strings.HasSuffix(s, "CR"):
		a.CreditMarker = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "CR"))
	case strings.HasSuffix(s, "DR"):
		a.DebitMarker = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "DR"))
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		a.Bracketed = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		a.Negative = true
		s = s[1:]
	} else if strings.HasSuffix(s, "-") {
		a.Negative = true
		s = s[:len(s)-1]
	}

	if s == "" {
		return Amount{}, fmt.Errorf("parsing amount %q: empty", text)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", text, err)
	}
	a.Value = v.Abs()
	return a, nil
}
