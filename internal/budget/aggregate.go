// Package budget rolls classified transactions up into monthly budgets and
// a period summary.
package budget

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// DefaultTopN is the number of expense categories ranked in a summary.
const DefaultTopN = 5

// Insight thresholds.
var (
	lowSavingsRate    = decimal.NewFromFloat(0.10)
	strongSavingsRate = decimal.NewFromFloat(0.30)
	diningAlert       = decimal.NewFromInt(300)
	hundred           = decimal.NewFromInt(100)
)

// nonSpending categories are debits that move money rather than spend it.
var nonSpending = map[string]bool{
	"transfer_out": true,
	"savings":      true,
	"investment":   true,
}

// Aggregate builds monthly budgets and their summary. Months are sorted
// ascending. topN <= 0 uses DefaultTopN.
func Aggregate(txns []model.ClassifiedTransaction, topN int) model.BudgetSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}
	byMonth := make(map[string][]model.ClassifiedTransaction)
	for _, t := range txns {
		key := t.MonthKey()
		byMonth[key] = append(byMonth[key], t)
	}
	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	months := make([]model.MonthlyBudget, 0, len(keys))
	for _, k := range keys {
		months = append(months, Month(k, byMonth[k]))
	}
	return Summarize(months, topN)
}

// Month builds the budget for one month's transactions.
func Month(key string, txns []model.ClassifiedTransaction) model.MonthlyBudget {
	income := make(map[string]*model.CategoryTotal)
	expenses := make(map[string]*model.CategoryTotal)
	docs := make(map[string]bool)

	for _, t := range txns {
		bucket := expenses
		if t.Direction == model.DirectionCredit {
			bucket = income
		}
		ct, ok := bucket[t.Category]
		if !ok {
			ct = &model.CategoryTotal{Category: t.Category}
			bucket[t.Category] = ct
		}
		ct.Subtotal = ct.Subtotal.Add(t.Amount)
		ct.Count++
		if t.DocumentID != "" {
			docs[t.DocumentID] = true
		}
	}

	m := model.MonthlyBudget{
		Month:            key,
		Income:           sortedTotals(income),
		Expenses:         sortedTotals(expenses),
		TransactionCount: len(txns),
		SourceDocuments:  sortedKeys(docs),
	}
	for _, ct := range m.Income {
		m.IncomeSubtotal = m.IncomeSubtotal.Add(ct.Subtotal)
	}
	for _, ct := range m.Expenses {
		m.ExpenseSubtotal = m.ExpenseSubtotal.Add(ct.Subtotal)
	}
	m.NetCashflow = m.IncomeSubtotal.Sub(m.ExpenseSubtotal)
	m.SavingsRate = rate(m.NetCashflow, m.IncomeSubtotal)
	return m
}

// Summarize averages monthly budgets over the months present.
func Summarize(months []model.MonthlyBudget, topN int) model.BudgetSummary {
	s := model.BudgetSummary{
		Months:               months,
		TopExpenseCategories: []model.CategoryAverage{},
		CategoryAverages:     []model.CategoryAverage{},
	}
	if s.Months == nil {
		s.Months = []model.MonthlyBudget{}
	}
	if len(months) == 0 {
		return s
	}
	n := decimal.NewFromInt(int64(len(months)))

	var income, expenses decimal.Decimal
	totals := make(map[model.Direction]map[string]*model.CategoryAverage)
	add := func(dir model.Direction, ct model.CategoryTotal) {
		if totals[dir] == nil {
			totals[dir] = make(map[string]*model.CategoryAverage)
		}
		ca, ok := totals[dir][ct.Category]
		if !ok {
			ca = &model.CategoryAverage{Category: ct.Category, Direction: dir}
			totals[dir][ct.Category] = ca
		}
		ca.Total = ca.Total.Add(ct.Subtotal)
		ca.Count += ct.Count
	}
	for _, m := range months {
		income = income.Add(m.IncomeSubtotal)
		expenses = expenses.Add(m.ExpenseSubtotal)
		for _, ct := range m.Income {
			add(model.DirectionCredit, ct)
		}
		for _, ct := range m.Expenses {
			add(model.DirectionDebit, ct)
		}
	}

	avgIncome := income.Div(n)
	avgExpenses := expenses.Div(n)
	avgNet := avgIncome.Sub(avgExpenses)
	s.AverageMonthlyIncome = avgIncome.Round(2)
	s.AverageMonthlyExpenses = avgExpenses.Round(2)
	s.AverageNetCashflow = avgNet.Round(2)
	s.SavingsRate = rate(avgNet, avgIncome)

	for _, dir := range []model.Direction{model.DirectionCredit, model.DirectionDebit} {
		for _, ca := range sortedAverages(totals[dir], n) {
			s.CategoryAverages = append(s.CategoryAverages, ca)
			if dir == model.DirectionDebit && !nonSpending[ca.Category] && len(s.TopExpenseCategories) < topN {
				s.TopExpenseCategories = append(s.TopExpenseCategories, ca)
			}
		}
	}

	s.Insights = insights(s)
	return s
}

func insights(s model.BudgetSummary) []string {
	var out []string
	pct := s.SavingsRate.Mul(hundred)
	switch {
	case s.SavingsRate.LessThan(lowSavingsRate):
		out = append(out, fmt.Sprintf("Savings rate is %s%%. Consider reducing discretionary spending.", pct.StringFixed(1)))
	case s.SavingsRate.GreaterThan(strongSavingsRate):
		out = append(out, fmt.Sprintf("Strong savings rate of %s%%.", pct.StringFixed(1)))
	}
	for _, ca := range s.CategoryAverages {
		if ca.Direction == model.DirectionDebit && ca.Category == "restaurants" && ca.Average.GreaterThan(diningAlert) {
			out = append(out, fmt.Sprintf("Restaurant spending averages $%s/month. Consider meal prep.", ca.Average.StringFixed(0)))
		}
	}
	return out
}

// rate is num/den to 4 places, or 0 when den is not positive.
func rate(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den).Round(4)
}

func sortedTotals(m map[string]*model.CategoryTotal) []model.CategoryTotal {
	out := make([]model.CategoryTotal, 0, len(m))
	for _, ct := range m {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Subtotal.Cmp(out[j].Subtotal); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func sortedAverages(m map[string]*model.CategoryAverage, n decimal.Decimal) []model.CategoryAverage {
	out := make([]model.CategoryAverage, 0, len(m))
	for _, ca := range m {
		c := *ca
		c.Average = c.Total.Div(n).Round(2)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Average.Cmp(out[j].Average); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
