package model

import "github.com/shopspring/decimal"

// CategoryTotal is a per-month category rollup.
type CategoryTotal struct {
	Category string          `json:"category"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Count    int             `json:"count"`
}

// CategoryAverage is a category's average monthly amount over the period.
type CategoryAverage struct {
	Category  string          `json:"category"`
	Direction Direction       `json:"direction"`
	Average   decimal.Decimal `json:"average"`
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
}

// MonthlyBudget is derived from classified transactions and recomputed wholesale.
type MonthlyBudget struct {
	Month            string          `json:"month"`
	Income           []CategoryTotal `json:"income"`
	Expenses         []CategoryTotal `json:"expenses"`
	IncomeSubtotal   decimal.Decimal `json:"income_subtotal"`
	ExpenseSubtotal  decimal.Decimal `json:"expense_subtotal"`
	NetCashflow      decimal.Decimal `json:"net_cashflow"`
	SavingsRate      decimal.Decimal `json:"savings_rate"`
	TransactionCount int             `json:"transaction_count"`
	SourceDocuments  []string        `json:"source_documents"`
}

// BudgetSummary aggregates a sequence of monthly budgets.
type BudgetSummary struct {
	Months                 []MonthlyBudget   `json:"months"`
	AverageMonthlyIncome   decimal.Decimal   `json:"average_monthly_income"`
	AverageMonthlyExpenses decimal.Decimal   `json:"average_monthly_expenses"`
	AverageNetCashflow     decimal.Decimal   `json:"average_net_cashflow"`
	SavingsRate            decimal.Decimal   `json:"savings_rate"`
	TopExpenseCategories   []CategoryAverage `json:"top_expense_categories"`
	CategoryAverages       []CategoryAverage `json:"category_averages"`
	Insights               []string          `json:"insights,omitempty"`
}
