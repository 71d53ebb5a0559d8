package model

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
)

// ExpenseCategory names a Form 433-A allowable expense line.
type ExpenseCategory string

const (
	ExpenseFoodClothingMisc     ExpenseCategory = "food_clothing_misc"
	ExpenseHealthcare           ExpenseCategory = "healthcare"
	ExpenseHousing              ExpenseCategory = "housing"
	ExpenseTransportation       ExpenseCategory = "transportation"
	ExpenseVehicleOwnership     ExpenseCategory = "vehicle_ownership"
	ExpenseVehicleOperating     ExpenseCategory = "vehicle_operating"
	ExpensePublicTransportation ExpenseCategory = "public_transportation"
	ExpenseHealthInsurance      ExpenseCategory = "health_insurance"
	ExpenseDebtPayment          ExpenseCategory = "debt_payment"
	ExpenseCourtOrdered         ExpenseCategory = "court_ordered"
	ExpenseOtherNecessary       ExpenseCategory = "other_necessary"
)

// AssetKind classifies an asset record.
type AssetKind string

const (
	AssetBankAccount  AssetKind = "bank_account"
	AssetRealProperty AssetKind = "real_property"
	AssetVehicle      AssetKind = "vehicle"
	AssetOther        AssetKind = "other"
)

// ExpenseItem is one reported monthly expense.
type ExpenseItem struct {
	Category    ExpenseCategory `yaml:"category" json:"category"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
}

// Debt is an outstanding obligation with a required monthly payment.
type Debt struct {
	Name           string          `yaml:"name" json:"name"`
	Balance        decimal.Decimal `yaml:"balance" json:"balance"`
	MonthlyPayment decimal.Decimal `yaml:"monthly_payment" json:"monthly_payment"`
}

// AssetRecord is a single asset. LoanBalance may exceed FairMarketValue.
type AssetRecord struct {
	Kind            AssetKind       `yaml:"kind" json:"kind"`
	Description     string          `yaml:"description,omitempty" json:"description,omitempty"`
	FairMarketValue decimal.Decimal `yaml:"fair_market_value" json:"fair_market_value"`
	LoanBalance     decimal.Decimal `yaml:"loan_balance" json:"loan_balance"`
	Liquid          bool            `yaml:"liquid" json:"liquid"`
}

// FinancialSnapshot is the household picture evaluated for an offer.
type FinancialSnapshot struct {
	GrossMonthlyIncome decimal.Decimal `yaml:"gross_monthly_income" json:"gross_monthly_income"`
	FamilySize         int             `yaml:"family_size" json:"family_size"`
	MembersOver65      int             `yaml:"members_over_65" json:"members_over_65"`
	State              string          `yaml:"state" json:"state"`
	VehicleCount       int             `yaml:"vehicle_count,omitempty" json:"vehicle_count,omitempty"` // 0 = count vehicle assets
	Expenses           []ExpenseItem   `yaml:"expenses,omitempty" json:"expenses,omitempty"`
	Debts              []Debt          `yaml:"debts,omitempty" json:"debts,omitempty"`
	Assets             []AssetRecord   `yaml:"assets,omitempty" json:"assets,omitempty"`
	TaxLiability       decimal.Decimal `yaml:"tax_liability,omitempty" json:"tax_liability,omitempty"` // shapes recommendations only
}

// MembersUnder65 returns the household members younger than 65.
func (s FinancialSnapshot) MembersUnder65() int {
	n := s.FamilySize - s.MembersOver65
	if n < 0 {
		return 0
	}
	return n
}

// Vehicles returns the vehicle count used for transportation standards.
func (s FinancialSnapshot) Vehicles() int {
	if s.VehicleCount > 0 {
		return s.VehicleCount
	}
	n := 0
	for _, a := range s.Assets {
		if a.Kind == AssetVehicle {
			n++
		}
	}
	return n
}

// ReportedExpense sums all expense items in a category.
func (s FinancialSnapshot) ReportedExpense(cat ExpenseCategory) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Expenses {
		if e.Category == cat {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// HasExpense reports whether any expense item uses the category.
func (s FinancialSnapshot) HasExpense(cat ExpenseCategory) bool {
	for _, e := range s.Expenses {
		if e.Category == cat {
			return true
		}
	}
	return false
}

// DebtPayments sums the required monthly payments across debts.
func (s FinancialSnapshot) DebtPayments() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.Debts {
		total = total.Add(d.MonthlyPayment)
	}
	return total
}

// Validate checks the snapshot for values no calculation can accept.
func (s FinancialSnapshot) Validate() []faults.ValidationError {
	var errs []faults.ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, faults.ValidationError{Locator: field, Reason: fmt.Sprintf(format, args...)})
	}

	if s.FamilySize <= 0 {
		add("family_size", "must be positive, got %d", s.FamilySize)
	}
	if s.MembersOver65 < 0 || s.MembersOver65 > s.FamilySize {
		add("members_over_65", "must be between 0 and family size, got %d", s.MembersOver65)
	}
	if len(s.State) != 2 {
		add("state", "must be a two-letter code, got %q", s.State)
	}
	if s.GrossMonthlyIncome.IsNegative() {
		add("gross_monthly_income", "must not be negative, got %s", s.GrossMonthlyIncome.StringFixed(2))
	}
	if s.TaxLiability.IsNegative() {
		add("tax_liability", "must not be negative, got %s", s.TaxLiability.StringFixed(2))
	}
	if s.VehicleCount < 0 {
		add("vehicle_count", "must not be negative, got %d", s.VehicleCount)
	}
	for i, e := range s.Expenses {
		if e.Amount.IsNegative() {
			add(fmt.Sprintf("expenses[%d]", i), "amount %s is negative", e.Amount.StringFixed(2))
		}
	}
	for i, d := range s.Debts {
		if d.MonthlyPayment.IsNegative() || d.Balance.IsNegative() {
			add(fmt.Sprintf("debts[%d]", i), "balance and payment must not be negative")
		}
	}
	for i, a := range s.Assets {
		if a.LoanBalance.IsNegative() {
			add(fmt.Sprintf("assets[%d]", i), "loan balance %s is negative", a.LoanBalance.StringFixed(2))
		}
	}
	return errs
}
