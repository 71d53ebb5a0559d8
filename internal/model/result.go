package model

import "github.com/shopspring/decimal"

// AllowancePolicy is how a category's allowed amount is derived.
type AllowancePolicy string

const (
	PolicyAlwaysStandard AllowancePolicy = "always_standard"
	PolicyLesserOf       AllowancePolicy = "lesser_of"
	PolicyActualOnly     AllowancePolicy = "actual_only"
)

// AllowanceResult is the outcome for one expense category.
type AllowanceResult struct {
	Category ExpenseCategory `json:"category"`
	Actual   decimal.Decimal `json:"actual"`
	Standard decimal.Decimal `json:"standard"`
	Allowed  decimal.Decimal `json:"allowed"`
	Policy   AllowancePolicy `json:"policy"`
}

// DisposableIncome is the allowable-expense computation for a snapshot.
type DisposableIncome struct {
	GrossMonthlyIncome decimal.Decimal   `json:"gross_monthly_income"`
	Allowances         []AllowanceResult `json:"allowances"`
	TotalActual        decimal.Decimal   `json:"total_actual"`
	TotalAllowable     decimal.Decimal   `json:"total_allowable"`
	Disposable         decimal.Decimal   `json:"disposable"` // may be negative
}

// Allowance returns the result for a category.
func (d DisposableIncome) Allowance(cat ExpenseCategory) (AllowanceResult, bool) {
	for _, a := range d.Allowances {
		if a.Category == cat {
			return a, true
		}
	}
	return AllowanceResult{}, false
}

// AssetEquity is the realizable equity of one asset.
type AssetEquity struct {
	Asset          AssetRecord     `json:"asset"`
	QuickSaleValue decimal.Decimal `json:"quick_sale_value"`
	Equity         decimal.Decimal `json:"equity"`
}

// OICResult is the eligibility determination for one snapshot.
type OICResult struct {
	StandardsVersion         string            `json:"standards_version"`
	MonthlyDisposableIncome  decimal.Decimal   `json:"monthly_disposable_income"`
	TotalAllowableExpenses   decimal.Decimal   `json:"total_allowable_expenses"`
	TotalNetRealizableEquity decimal.Decimal   `json:"total_net_realizable_equity"`
	RCPLumpSum               decimal.Decimal   `json:"rcp_lump_sum"`
	RCPPeriodic              decimal.Decimal   `json:"rcp_periodic"`
	CNCEligible              bool              `json:"cnc_eligible"`
	CNCReason                string            `json:"cnc_reason"`
	MinimumOffer             decimal.Decimal   `json:"minimum_offer"`
	ApplicationFee           decimal.Decimal   `json:"application_fee"`
	Allowances               []AllowanceResult `json:"allowances"`
	AssetEquity              []AssetEquity     `json:"asset_equity"`
	Recommendations          []string          `json:"recommendations"`
}
