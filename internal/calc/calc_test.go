package calc

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindicatenyc/vindicate-app/internal/audit"
	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
	"github.com/vindicatenyc/vindicate-app/internal/standards"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func expense(cat model.ExpenseCategory, amount string) model.ExpenseItem {
	return model.ExpenseItem{Category: cat, Amount: d(amount)}
}

func TestAlwaysStandardIgnoresActual(t *testing.T) {
	table := standards.Default()
	for _, actual := range []string{"0", "500", "1921", "9999.99"} {
		s := model.FinancialSnapshot{
			FamilySize: 4, State: "NY", GrossMonthlyIncome: d("8000"),
			Expenses: []model.ExpenseItem{
				expense(model.ExpenseFoodClothingMisc, actual),
				expense(model.ExpenseHealthcare, actual),
			},
		}
		di, err := Disposable(s, table)
		require.NoError(t, err)

		for _, a := range di.Allowances {
			if a.Policy == model.PolicyAlwaysStandard {
				assert.True(t, a.Allowed.Equal(a.Standard), "%s actual=%s", a.Category, actual)
			}
		}
		food, _ := di.Allowance(model.ExpenseFoodClothingMisc)
		assertDecimal(t, "1921", food.Allowed)
		health, _ := di.Allowance(model.ExpenseHealthcare)
		assertDecimal(t, "300", health.Allowed)
	}
}

func TestLesserOfAndActualOnly(t *testing.T) {
	s := model.FinancialSnapshot{
		FamilySize: 4, State: "NY", GrossMonthlyIncome: d("9000"),
		Assets: []model.AssetRecord{{Kind: model.AssetVehicle, FairMarketValue: d("12000")}},
		Expenses: []model.ExpenseItem{
			expense(model.ExpenseHousing, "5000"),
			expense(model.ExpenseTransportation, "600"),
			expense(model.ExpenseHealthInsurance, "800"),
			expense(model.ExpenseDebtPayment, "100"),
			expense(model.ExpenseCourtOrdered, "450"),
		},
		Debts: []model.Debt{{Name: "card", Balance: d("4000"), MonthlyPayment: d("250")}},
	}

	di, err := Disposable(s, standards.Default())
	require.NoError(t, err)

	tests := []struct {
		cat      model.ExpenseCategory
		actual   string
		standard string
		allowed  string
	}{
		{model.ExpenseHousing, "5000", "3879", "3879"},
		{model.ExpenseTransportation, "600", "929", "600"},
		{model.ExpenseVehicleOwnership, "0", "588", "0"},
		{model.ExpensePublicTransportation, "0", "0", "0"},
		{model.ExpenseHealthInsurance, "800", "0", "800"},
		{model.ExpenseDebtPayment, "350", "0", "350"},
		{model.ExpenseCourtOrdered, "450", "0", "450"},
		{model.ExpenseOtherNecessary, "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			a, ok := di.Allowance(tt.cat)
			require.True(t, ok)
			assertDecimal(t, tt.actual, a.Actual)
			assertDecimal(t, tt.standard, a.Standard)
			assertDecimal(t, tt.allowed, a.Allowed)
		})
	}
}

func TestDisposableCoversEveryCategory(t *testing.T) {
	s := model.FinancialSnapshot{FamilySize: 1, State: "TX", GrossMonthlyIncome: d("1000"),
		Expenses: []model.ExpenseItem{expense(model.ExpenseHousing, "1500")}}

	di, err := Disposable(s, standards.Default())
	require.NoError(t, err)

	got := make([]model.ExpenseCategory, len(di.Allowances))
	for i, a := range di.Allowances {
		got[i] = a.Category
	}
	assert.Equal(t, Categories(), got)

	// 785 national + 75 healthcare + 1500 housing; unreported transit allows 0
	assertDecimal(t, "2360", di.TotalAllowable)
	assertDecimal(t, "-1360", di.Disposable)
	assertDecimal(t, "1500", di.TotalActual)
}

func TestDisposableUnknownState(t *testing.T) {
	s := model.FinancialSnapshot{FamilySize: 2, State: "ZZ", GrossMonthlyIncome: d("3000")}

	_, err := Disposable(s, standards.Default())

	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrConfiguration)
	var cfgErr *faults.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "standards", cfgErr.Component)
	assert.Equal(t, "housing.ZZ", cfgErr.Key)
}

func TestUnknownCategories(t *testing.T) {
	s := model.FinancialSnapshot{Expenses: []model.ExpenseItem{
		expense("pet_care", "80"),
		expense(model.ExpenseHousing, "100"),
		expense("pet_care", "20"),
		expense("tuition", "300"),
	}}
	assert.Equal(t, []model.ExpenseCategory{"pet_care", "tuition"}, UnknownCategories(s))
}

func TestEquity(t *testing.T) {
	total, detail := Equity([]model.AssetRecord{
		{Kind: model.AssetBankAccount, FairMarketValue: d("5000"), Liquid: true},
		{Kind: model.AssetVehicle, FairMarketValue: d("20000"), LoanBalance: d("18000")},
		{Kind: model.AssetRealProperty, FairMarketValue: d("300000"), LoanBalance: d("200000")},
		{Kind: model.AssetBankAccount, FairMarketValue: d("100"), LoanBalance: d("400"), Liquid: true},
	})

	assertDecimal(t, "45000", total)
	require.Len(t, detail, 4)
	assertDecimal(t, "5000", detail[0].Equity)
	assertDecimal(t, "16000", detail[1].QuickSaleValue)
	assertDecimal(t, "0", detail[1].Equity)
	assertDecimal(t, "40000", detail[2].Equity)
	assertDecimal(t, "0", detail[3].Equity)
	for _, ae := range detail {
		assert.False(t, ae.Equity.IsNegative())
	}
}

func TestRCP(t *testing.T) {
	tests := []struct {
		disposable, equity, lump, periodic string
	}{
		{"500", "10000", "16000", "22000"},
		{"0", "2500", "2500", "2500"},
		{"123.45", "0", "1481.40", "2962.80"},
		{"-300", "4000", "4000", "4000"},
	}
	for _, tt := range tests {
		lump, periodic := RCP(d(tt.disposable), d(tt.equity))
		assertDecimal(t, tt.lump, lump, tt.disposable)
		assertDecimal(t, tt.periodic, periodic, tt.disposable)
	}
}

func TestCNCEligible(t *testing.T) {
	threshold := d("1000")
	tests := []struct {
		disposable, equity string
		want               bool
	}{
		{"-50", "0", true},
		{"0", "999.99", true},
		{"0", "1000", false},
		{"0.01", "0", false},
		{"-500", "25000", false},
	}
	for _, tt := range tests {
		got := CNCEligible(d(tt.disposable), d(tt.equity), threshold)
		assert.Equal(t, tt.want, got, "%s/%s", tt.disposable, tt.equity)
		assert.NotEmpty(t, CNCReason(d(tt.disposable), d(tt.equity), threshold))
	}
}

func TestEvaluate(t *testing.T) {
	s := model.FinancialSnapshot{
		GrossMonthlyIncome: d("6000"), FamilySize: 2, State: "NY",
		Expenses: []model.ExpenseItem{
			expense(model.ExpenseHousing, "2500"),
			expense(model.ExpenseTransportation, "700"),
			expense(model.ExpenseHealthInsurance, "400"),
		},
		Debts: []model.Debt{{Name: "visa", Balance: d("3000"), MonthlyPayment: d("150")}},
		Assets: []model.AssetRecord{
			{Kind: model.AssetBankAccount, Description: "checking", FairMarketValue: d("3000"), Liquid: true},
			{Kind: model.AssetVehicle, Description: "2019 civic", FairMarketValue: d("15000"), LoanBalance: d("10000")},
		},
	}
	trail := audit.NewTrail(audit.Options{})

	res, err := Evaluate(s, standards.Default(), Options{CNCEquityExemption: d("1000")}, trail)

	require.NoError(t, err)
	assert.Equal(t, "2025-Q1", res.StandardsVersion)
	assertDecimal(t, "5310", res.TotalAllowableExpenses)
	assertDecimal(t, "690", res.MonthlyDisposableIncome)
	assertDecimal(t, "5000", res.TotalNetRealizableEquity)
	assertDecimal(t, "13280", res.RCPLumpSum)
	assertDecimal(t, "21560", res.RCPPeriodic)
	assert.False(t, res.CNCEligible)
	assert.Contains(t, res.CNCReason, "positive disposable income")
	assertDecimal(t, "205", res.MinimumOffer)
	assertDecimal(t, "205", res.ApplicationFee)
	assert.Len(t, res.Allowances, len(Categories()))
	assert.Len(t, res.AssetEquity, 2)
	require.NotEmpty(t, res.Recommendations)
	assert.Contains(t, res.Recommendations[0], "$13280.00")

	snap := trail.Snapshot()
	assert.Empty(t, snap.Errors)
	assert.Empty(t, snap.Warnings)
	assert.Len(t, snap.Entries, len(Categories())+1+2+2+1)
	assert.Equal(t, 2, snap.Entries[len(Categories())+2].Source.Line)
}

func TestEvaluateHardship(t *testing.T) {
	s := model.FinancialSnapshot{
		GrossMonthlyIncome: d("1000"), FamilySize: 1, State: "NY",
		Expenses: []model.ExpenseItem{expense(model.ExpenseHousing, "2000"), expense("pet_care", "60")},
	}
	trail := audit.NewTrail(audit.Options{})

	res, err := Evaluate(s, standards.Default(), DefaultOptions(), trail)

	require.NoError(t, err)
	assertDecimal(t, "-1860", res.MonthlyDisposableIncome)
	assertDecimal(t, "0", res.RCPLumpSum)
	assert.True(t, res.CNCEligible)
	require.NotEmpty(t, res.Recommendations)
	assert.Contains(t, res.Recommendations[0], "Currently Not Collectible")

	var codes []string
	for _, w := range trail.Snapshot().Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{CodeUnknownCategory, CodeNegativeDisposable}, codes)
}

func TestEvaluateZeroExemption(t *testing.T) {
	s := model.FinancialSnapshot{
		GrossMonthlyIncome: d("1000"), FamilySize: 1, State: "NY",
		Expenses: []model.ExpenseItem{expense(model.ExpenseHousing, "2000")},
	}

	res, err := Evaluate(s, standards.Default(), Options{CNCEquityExemption: decimal.Zero}, audit.NewTrail(audit.Options{}))

	require.NoError(t, err)
	assert.True(t, res.MonthlyDisposableIncome.IsNegative())
	assert.False(t, res.CNCEligible)
	assert.Contains(t, res.CNCReason, "at or above the 0.00 exemption")
}

func TestEvaluateLiabilityRecommendation(t *testing.T) {
	s := model.FinancialSnapshot{
		GrossMonthlyIncome: d("4000"), FamilySize: 1, State: "TX", TaxLiability: d("80000"),
		Expenses: []model.ExpenseItem{expense(model.ExpenseHousing, "2500")},
	}

	res, err := Evaluate(s, standards.Default(), DefaultOptions(), audit.NewTrail(audit.Options{}))

	require.NoError(t, err)
	assert.Contains(t, res.Recommendations, "Lump-sum RCP is under half the total liability: strong offer-in-compromise candidate.")
	assert.Contains(t, res.Recommendations[len(res.Recommendations)-1], "exceed allowable amounts by $744.00")
}

func TestEvaluateErrors(t *testing.T) {
	t.Run("unknown state", func(t *testing.T) {
		trail := audit.NewTrail(audit.Options{})
		_, err := Evaluate(model.FinancialSnapshot{FamilySize: 1, State: "ZZ"}, standards.Default(), DefaultOptions(), trail)

		assert.ErrorIs(t, err, faults.ErrConfiguration)
		snap := trail.Snapshot()
		require.Len(t, snap.Errors, 1)
		assert.Equal(t, CodeStandardsLookup, snap.Errors[0].Code)
		assert.False(t, snap.Errors[0].Recoverable)
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		trail := audit.NewTrail(audit.Options{})
		_, err := Evaluate(model.FinancialSnapshot{FamilySize: 0, State: "NY"}, standards.Default(), DefaultOptions(), trail)

		assert.ErrorIs(t, err, faults.ErrValidation)
		assert.Equal(t, CodeInvalidSnapshot, trail.Snapshot().Errors[0].Code)
	})
}
