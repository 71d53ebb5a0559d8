// Package chart maps transaction categories onto Form 433-A allowance
// categories so a budget can stand in for reported expenses.
package chart

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/calc"
	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// FileName is the chart file written by Save.
const FileName = "chart.csv"

const component = "chart"

//go:embed chart.csv
var defaultCSV []byte

// Mapping assigns a transaction category to an allowance category. An
// empty Allowance marks spending the IRS does not allow.
type Mapping struct {
	Category    string
	Allowance   model.ExpenseCategory
	Description string
}

// Chart provides lookup over category mappings.
type Chart struct {
	mappings   []Mapping
	byCategory map[string]Mapping
}

// NewChart validates mappings and builds a Chart.
func NewChart(mappings []Mapping) (*Chart, error) {
	known := calc.Categories()
	byCategory := make(map[string]Mapping, len(mappings))
	for _, m := range mappings {
		if _, dup := byCategory[m.Category]; dup {
			return nil, faults.Configf(component, m.Category, "duplicate category")
		}
		if m.Allowance != "" && !slices.Contains(known, m.Allowance) {
			return nil, faults.Configf(component, m.Category, "unknown allowance category %q", m.Allowance)
		}
		byCategory[m.Category] = m
	}
	return &Chart{mappings: mappings, byCategory: byCategory}, nil
}

var (
	defaultOnce  sync.Once
	defaultChart *Chart
)

// Default returns the embedded chart.
func Default() *Chart {
	defaultOnce.Do(func() {
		mappings, err := ReadMappings(bytes.NewReader(defaultCSV))
		if err == nil {
			defaultChart, err = NewChart(mappings)
		}
		if err != nil {
			panic(fmt.Sprintf("embedded chart: %v", err))
		}
	})
	return defaultChart
}

// Load reads a chart CSV file.
func Load(path string) (*Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart: %w", err)
	}
	defer f.Close()

	mappings, err := ReadMappings(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart: %w", err)
	}
	return NewChart(mappings)
}

// Save writes the chart to dir/chart.csv.
func (c *Chart) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating chart dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, FileName))
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()

	if err := WriteMappings(f, c.mappings); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	return nil
}

// All returns every mapping in file order.
func (c *Chart) All() []Mapping {
	return c.mappings
}

// Get returns the mapping for a transaction category.
func (c *Chart) Get(category string) (Mapping, bool) {
	m, ok := c.byCategory[category]
	return m, ok
}

// Allowance returns the allowance category for a transaction category, or
// "" when it is unmapped or discretionary.
func (c *Chart) Allowance(category string) model.ExpenseCategory {
	return c.byCategory[category].Allowance
}

// ByAllowance returns the transaction categories feeding an allowance.
func (c *Chart) ByAllowance(allowance model.ExpenseCategory) []string {
	var out []string
	for _, m := range c.mappings {
		if m.Allowance == allowance {
			out = append(out, m.Category)
		}
	}
	return out
}

// ExpensesFromBudget derives monthly expense items from a budget's debit
// averages, one item per allowance category in policy order.
func (c *Chart) ExpensesFromBudget(summary model.BudgetSummary) []model.ExpenseItem {
	sums := make(map[model.ExpenseCategory]decimal.Decimal)
	sources := make(map[model.ExpenseCategory][]string)
	for _, avg := range summary.CategoryAverages {
		if avg.Direction != model.DirectionDebit {
			continue
		}
		allowance := c.Allowance(avg.Category)
		if allowance == "" {
			continue
		}
		sums[allowance] = sums[allowance].Add(avg.Average)
		sources[allowance] = append(sources[allowance], avg.Category)
	}

	var items []model.ExpenseItem
	for _, cat := range calc.Categories() {
		sum, ok := sums[cat]
		if !ok {
			continue
		}
		items = append(items, model.ExpenseItem{
			Category:    cat,
			Amount:      sum.Round(2),
			Description: "budget: " + strings.Join(sources[cat], ", "),
		})
	}
	return items
}

// Fill returns a copy of s with budget-derived expenses added for every
// category s does not report, and with gross income taken from the budget
// when s has none. The second result names what was filled.
func (c *Chart) Fill(s model.FinancialSnapshot, summary model.BudgetSummary) (model.FinancialSnapshot, []string) {
	out := s
	out.Expenses = slices.Clone(s.Expenses)

	var filled []string
	if s.GrossMonthlyIncome.IsZero() && summary.AverageMonthlyIncome.IsPositive() {
		out.GrossMonthlyIncome = summary.AverageMonthlyIncome
		filled = append(filled, "gross_monthly_income")
	}
	for _, item := range c.ExpensesFromBudget(summary) {
		if s.HasExpense(item.Category) {
			continue
		}
		out.Expenses = append(out.Expenses, item)
		filled = append(filled, string(item.Category))
	}
	return out, filled
}
