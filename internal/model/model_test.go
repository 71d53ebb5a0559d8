package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
)

func TestSnapshotHousehold(t *testing.T) {
	s := FinancialSnapshot{
		FamilySize:    4,
		MembersOver65: 1,
		Assets: []AssetRecord{
			{Kind: AssetVehicle},
			{Kind: AssetBankAccount, Liquid: true},
			{Kind: AssetVehicle},
		},
		Expenses: []ExpenseItem{
			{Category: ExpenseHousing, Amount: decimal.NewFromInt(1500)},
			{Category: ExpenseHousing, Amount: decimal.NewFromInt(200)},
		},
		Debts: []Debt{
			{MonthlyPayment: decimal.NewFromInt(150)},
			{MonthlyPayment: decimal.RequireFromString("49.50")},
		},
	}

	assert.Equal(t, 3, s.MembersUnder65())
	assert.Equal(t, 2, s.Vehicles())
	assert.Equal(t, "1700", s.ReportedExpense(ExpenseHousing).String())
	assert.True(t, s.ReportedExpense(ExpenseHealthcare).IsZero())
	assert.True(t, s.HasExpense(ExpenseHousing))
	assert.False(t, s.HasExpense(ExpenseHealthcare))
	assert.Equal(t, "199.50", s.DebtPayments().StringFixed(2))

	s.VehicleCount = 1
	assert.Equal(t, 1, s.Vehicles())
}

func TestSnapshotValidate(t *testing.T) {
	valid := FinancialSnapshot{FamilySize: 2, State: "NY", GrossMonthlyIncome: decimal.NewFromInt(5000)}
	assert.Empty(t, valid.Validate())

	bad := FinancialSnapshot{
		FamilySize:         0,
		MembersOver65:      1,
		State:              "New York",
		GrossMonthlyIncome: decimal.NewFromInt(-1),
		Expenses:           []ExpenseItem{{Category: ExpenseHousing, Amount: decimal.NewFromInt(-5)}},
	}
	errs := bad.Validate()
	assert.Len(t, errs, 5)
	for _, e := range errs {
		assert.True(t, errors.Is(e, faults.ErrValidation))
	}
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionCredit.Valid())
	assert.True(t, DirectionDebit.Valid())
	assert.False(t, Direction("").Valid())
}

func TestMonthKey(t *testing.T) {
	txn := ClassifiedTransaction{RawTransaction: RawTransaction{Date: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)}}
	assert.Equal(t, "2025-03", txn.MonthKey())
}

func TestDocumentContentText(t *testing.T) {
	c := &DocumentContent{Pages: []Page{
		{Number: 1, Text: "first"},
		{Number: 2, Err: errors.New("bad page")},
		{Number: 3, Text: "third"},
	}}
	assert.Equal(t, "first\n\nthird", c.Text())

	var nilContent *DocumentContent
	assert.Empty(t, nilContent.Text())
}
