package calc

import (
	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// QuickSaleRate is the share of fair market value realizable in a forced sale.
var QuickSaleRate = decimal.RequireFromString("0.8")

// Equity returns the total net realizable equity and its per-asset detail.
// Liquid records count at face value; others at the quick-sale value. Each
// record contributes at least zero.
func Equity(assets []model.AssetRecord) (decimal.Decimal, []model.AssetEquity) {
	total := decimal.Zero
	out := make([]model.AssetEquity, 0, len(assets))
	for _, a := range assets {
		qsv := a.FairMarketValue
		if !a.Liquid {
			qsv = a.FairMarketValue.Mul(QuickSaleRate)
		}
		eq := decimal.Max(decimal.Zero, qsv.Sub(a.LoanBalance))
		out = append(out, model.AssetEquity{Asset: a, QuickSaleValue: qsv, Equity: eq})
		total = total.Add(eq)
	}
	return total, out
}
