// Package calc computes disposable income, asset equity and reasonable
// collection potential for a financial snapshot.
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/model"
	"github.com/vindicatenyc/vindicate-app/internal/standards"
)

// allowanceRule binds an expense category to its policy. standard is nil
// for actual-only categories.
type allowanceRule struct {
	Category model.ExpenseCategory
	Policy   model.AllowancePolicy
	standard func(l *lookup) (decimal.Decimal, error)
}

// lookup memoizes standards lookups for one snapshot.
type lookup struct {
	snap      model.FinancialSnapshot
	table     *standards.Table
	transport *standards.TransportationStandard
}

func (l *lookup) transportation() (standards.TransportationStandard, error) {
	if l.transport == nil {
		ts, err := l.table.Transportation(l.snap.State, l.snap.Vehicles())
		if err != nil {
			return ts, err
		}
		l.transport = &ts
	}
	return *l.transport, nil
}

func transportPart(part func(standards.TransportationStandard) decimal.Decimal) func(*lookup) (decimal.Decimal, error) {
	return func(l *lookup) (decimal.Decimal, error) {
		ts, err := l.transportation()
		if err != nil {
			return decimal.Zero, err
		}
		return part(ts), nil
	}
}

// allowanceRules is applied in order; results keep this order.
var allowanceRules = []allowanceRule{
	{Category: model.ExpenseFoodClothingMisc, Policy: model.PolicyAlwaysStandard, standard: func(l *lookup) (decimal.Decimal, error) {
		return l.table.National(l.snap.FamilySize)
	}},
	{Category: model.ExpenseHealthcare, Policy: model.PolicyAlwaysStandard, standard: func(l *lookup) (decimal.Decimal, error) {
		return l.table.Healthcare(l.snap.MembersUnder65(), l.snap.MembersOver65)
	}},
	{Category: model.ExpenseHousing, Policy: model.PolicyLesserOf, standard: func(l *lookup) (decimal.Decimal, error) {
		return l.table.Housing(l.snap.State, l.snap.FamilySize)
	}},
	{Category: model.ExpenseTransportation, Policy: model.PolicyLesserOf,
		standard: transportPart(func(ts standards.TransportationStandard) decimal.Decimal { return ts.Total })},
	{Category: model.ExpenseVehicleOwnership, Policy: model.PolicyLesserOf,
		standard: transportPart(func(ts standards.TransportationStandard) decimal.Decimal { return ts.Ownership })},
	{Category: model.ExpenseVehicleOperating, Policy: model.PolicyLesserOf,
		standard: transportPart(func(ts standards.TransportationStandard) decimal.Decimal { return ts.Operating })},
	{Category: model.ExpensePublicTransportation, Policy: model.PolicyLesserOf,
		standard: transportPart(func(ts standards.TransportationStandard) decimal.Decimal { return ts.Public })},
	{Category: model.ExpenseHealthInsurance, Policy: model.PolicyActualOnly},
	{Category: model.ExpenseDebtPayment, Policy: model.PolicyActualOnly},
	{Category: model.ExpenseCourtOrdered, Policy: model.PolicyActualOnly},
	{Category: model.ExpenseOtherNecessary, Policy: model.PolicyActualOnly},
}

// Categories lists the expense categories with an allowance policy.
func Categories() []model.ExpenseCategory {
	out := make([]model.ExpenseCategory, len(allowanceRules))
	for i, r := range allowanceRules {
		out[i] = r.Category
	}
	return out
}

// UnknownCategories returns reported categories that no policy covers, in
// first-seen order. They are excluded from the computation.
func UnknownCategories(s model.FinancialSnapshot) []model.ExpenseCategory {
	known := make(map[model.ExpenseCategory]bool, len(allowanceRules))
	for _, r := range allowanceRules {
		known[r.Category] = true
	}
	var out []model.ExpenseCategory
	for _, e := range s.Expenses {
		if !known[e.Category] {
			known[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Disposable applies the allowance policies to a snapshot. Every policy
// category appears in the result; missing categories count as zero actual.
// The disposable amount may be negative.
func Disposable(s model.FinancialSnapshot, table *standards.Table) (model.DisposableIncome, error) {
	l := &lookup{snap: s, table: table}
	di := model.DisposableIncome{
		GrossMonthlyIncome: s.GrossMonthlyIncome,
		Allowances:         make([]model.AllowanceResult, 0, len(allowanceRules)),
	}

	for _, rule := range allowanceRules {
		actual := s.ReportedExpense(rule.Category)
		if rule.Category == model.ExpenseDebtPayment {
			actual = actual.Add(s.DebtPayments())
		}

		res := model.AllowanceResult{Category: rule.Category, Actual: actual, Policy: rule.Policy}
		if rule.standard != nil {
			std, err := rule.standard(l)
			if err != nil {
				return model.DisposableIncome{}, err
			}
			res.Standard = std
		}

		switch rule.Policy {
		case model.PolicyAlwaysStandard:
			res.Allowed = res.Standard
		case model.PolicyLesserOf:
			res.Allowed = decimal.Min(actual, res.Standard)
		default:
			res.Allowed = actual
		}

		di.Allowances = append(di.Allowances, res)
		di.TotalActual = di.TotalActual.Add(actual)
		di.TotalAllowable = di.TotalAllowable.Add(res.Allowed)
	}

	di.Disposable = s.GrossMonthlyIncome.Sub(di.TotalAllowable)
	return di, nil
}
