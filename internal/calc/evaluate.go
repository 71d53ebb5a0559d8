package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/audit"
	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
	"github.com/vindicatenyc/vindicate-app/internal/standards"
)

// Audit codes raised during evaluation.
const (
	CodeInvalidSnapshot    = "INVALID_SNAPSHOT"
	CodeUnknownCategory    = "UNKNOWN_EXPENSE_CATEGORY"
	CodeStandardsLookup    = "STANDARDS_LOOKUP"
	CodeNegativeDisposable = "NEGATIVE_DISPOSABLE_INCOME"
	CodeZeroIncome         = "ZERO_INCOME"
)

// snapshotSource labels audit records derived from the snapshot itself.
const snapshotSource = "snapshot"

// DefaultCNCEquityExemption is the equity below which CNC status is available.
var DefaultCNCEquityExemption = decimal.NewFromInt(1000)

// Options tune Evaluate.
type Options struct {
	// CNCEquityExemption is used as given; zero means no equity qualifies.
	CNCEquityExemption decimal.Decimal
}

// DefaultOptions returns Options with the standard exemption.
func DefaultOptions() Options {
	return Options{CNCEquityExemption: DefaultCNCEquityExemption}
}

// Evaluate computes the offer-in-compromise figures for a snapshot and
// records each derived figure on the trail.
func Evaluate(s model.FinancialSnapshot, table *standards.Table, opts Options, trail *audit.Trail) (model.OICResult, error) {
	threshold := opts.CNCEquityExemption
	src := audit.Source{Document: snapshotSource}

	if errs := s.Validate(); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
			trail.FailWith(CodeInvalidSnapshot, src, e)
		}
		return model.OICResult{}, fmt.Errorf("invalid snapshot: %w", errors.Join(joined...))
	}

	for _, cat := range UnknownCategories(s) {
		trail.Warn(audit.Warning{
			Code: CodeUnknownCategory, Kind: faults.KindValidation, Source: src,
			Message:         fmt.Sprintf("expense category %q has no allowance policy and was excluded", cat),
			SuggestedAction: "map the expense to an allowable category",
		})
	}

	di, err := Disposable(s, table)
	if err != nil {
		trail.FailWith(CodeStandardsLookup, src, err)
		return model.OICResult{}, fmt.Errorf("computing disposable income: %w", err)
	}
	for _, a := range di.Allowances {
		trail.Record(audit.Entry{
			Step: "allowance", Action: string(a.Policy), Source: src,
			Input:  fmt.Sprintf("%s actual=%s standard=%s", a.Category, a.Actual.StringFixed(2), a.Standard.StringFixed(2)),
			Output: "allowed=" + a.Allowed.StringFixed(2),
			Notes:  "standards " + table.Version(),
		})
	}
	trail.Record(audit.Entry{
		Step: "disposable_income", Action: "subtract", Source: src,
		Input:  fmt.Sprintf("gross=%s - allowable=%s", s.GrossMonthlyIncome.StringFixed(2), di.TotalAllowable.StringFixed(2)),
		Output: "disposable=" + di.Disposable.StringFixed(2),
	})
	if s.GrossMonthlyIncome.IsZero() {
		trail.Warn(audit.Warning{
			Code: CodeZeroIncome, Kind: faults.KindValidation, Source: src,
			Message:         "zero gross income reported",
			SuggestedAction: "document the household's means of support",
		})
	}
	if di.Disposable.IsNegative() {
		trail.Warn(audit.Warning{
			Code: CodeNegativeDisposable, Kind: faults.KindValidation, Source: src,
			Message:         fmt.Sprintf("monthly disposable income is %s", di.Disposable.StringFixed(2)),
			SuggestedAction: "document expenses above the standards",
		})
	}

	equity, assets := Equity(s.Assets)
	for i, a := range assets {
		trail.Record(audit.Entry{
			Step: "asset_equity", Action: string(a.Asset.Kind), Source: audit.Source{Document: snapshotSource, Line: i + 1},
			Input:  fmt.Sprintf("quick_sale=%s loan=%s", a.QuickSaleValue.StringFixed(2), a.Asset.LoanBalance.StringFixed(2)),
			Output: "equity=" + a.Equity.StringFixed(2),
			Notes:  a.Asset.Description,
		})
	}

	lump, periodic := RCP(di.Disposable, equity)
	trail.Record(audit.Entry{
		Step: "rcp", Action: "lump_sum", Source: src,
		Input:  fmt.Sprintf("max(disposable,0)=%s x 12 + equity=%s", decimal.Max(di.Disposable, decimal.Zero).StringFixed(2), equity.StringFixed(2)),
		Output: "rcp=" + lump.StringFixed(2),
		Notes:  "offer paid in 5 months or less",
	})
	trail.Record(audit.Entry{
		Step: "rcp", Action: "periodic", Source: src,
		Input:  fmt.Sprintf("max(disposable,0)=%s x 24 + equity=%s", decimal.Max(di.Disposable, decimal.Zero).StringFixed(2), equity.StringFixed(2)),
		Output: "rcp=" + periodic.StringFixed(2),
		Notes:  "offer paid in 6 to 24 months",
	})

	cnc := CNCEligible(di.Disposable, equity, threshold)
	reason := CNCReason(di.Disposable, equity, threshold)
	trail.Record(audit.Entry{Step: "cnc", Action: "eligibility", Source: src, Output: fmt.Sprintf("eligible=%t", cnc), Notes: reason})

	res := model.OICResult{
		StandardsVersion:         table.Version(),
		MonthlyDisposableIncome:  di.Disposable,
		TotalAllowableExpenses:   di.TotalAllowable,
		TotalNetRealizableEquity: equity,
		RCPLumpSum:               lump,
		RCPPeriodic:              periodic,
		CNCEligible:              cnc,
		CNCReason:                reason,
		MinimumOffer:             MinimumOffer,
		ApplicationFee:           ApplicationFee,
		Allowances:               di.Allowances,
		AssetEquity:              assets,
	}
	res.Recommendations = recommend(s, di, res)
	return res, nil
}

func recommend(s model.FinancialSnapshot, di model.DisposableIncome, res model.OICResult) []string {
	var out []string
	if res.CNCEligible {
		out = append(out, "Request Currently Not Collectible status: "+res.CNCReason+".")
	}
	switch {
	case res.RCPLumpSum.GreaterThan(res.MinimumOffer):
		out = append(out, fmt.Sprintf("Offer at least the lump-sum RCP of $%s, or $%s over 24 months.",
			res.RCPLumpSum.StringFixed(2), res.RCPPeriodic.StringFixed(2)))
	case !res.CNCEligible:
		out = append(out, fmt.Sprintf("RCP is at or below the $%s minimum offer; consider an installment agreement.",
			res.MinimumOffer.StringFixed(2)))
	}
	if s.TaxLiability.IsPositive() && res.RCPLumpSum.LessThan(s.TaxLiability.Div(decimal.NewFromInt(2))) {
		out = append(out, "Lump-sum RCP is under half the total liability: strong offer-in-compromise candidate.")
	}
	excess := decimal.Zero
	for _, a := range di.Allowances {
		if a.Actual.GreaterThan(a.Allowed) {
			excess = excess.Add(a.Actual.Sub(a.Allowed))
		}
	}
	if excess.IsPositive() {
		out = append(out, fmt.Sprintf("Actual expenses exceed allowable amounts by $%s. Document necessity to request the difference.",
			excess.StringFixed(2)))
	}
	if di.Disposable.IsNegative() {
		out = append(out, "Keep receipts for every expense above the standards.")
	}
	return out
}
