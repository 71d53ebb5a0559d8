package calc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed offer amounts, reported next to the computed RCP.
var (
	MinimumOffer   = decimal.NewFromInt(205)
	ApplicationFee = decimal.NewFromInt(205)
)

var (
	lumpMonths     = decimal.NewFromInt(12)
	periodicMonths = decimal.NewFromInt(24)
)

// RCP returns the lump-sum (12 months) and periodic (24 months) reasonable
// collection potential. Negative disposable income contributes nothing.
func RCP(disposable, equity decimal.Decimal) (lump, periodic decimal.Decimal) {
	d := decimal.Max(disposable, decimal.Zero)
	return d.Mul(lumpMonths).Add(equity), d.Mul(periodicMonths).Add(equity)
}

// CNCEligible reports whether the household has no ability to pay:
// no disposable income and equity below the exemption threshold.
func CNCEligible(disposable, equity, threshold decimal.Decimal) bool {
	return !disposable.IsPositive() && equity.LessThan(threshold)
}

// CNCReason explains the CNCEligible outcome.
func CNCReason(disposable, equity, threshold decimal.Decimal) string {
	switch {
	case CNCEligible(disposable, equity, threshold):
		return fmt.Sprintf("disposable income %s with equity %s below the %s exemption: collection would cause hardship",
			disposable.StringFixed(2), equity.StringFixed(2), threshold.StringFixed(2))
	case disposable.IsPositive():
		return fmt.Sprintf("positive disposable income of %s per month", disposable.StringFixed(2))
	default:
		return fmt.Sprintf("realizable equity %s is at or above the %s exemption", equity.StringFixed(2), threshold.StringFixed(2))
	}
}
