package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

func contractual() *Classifier {
	return New(nil, Options{BracketOverridesCredit: true, LowConfidence: 0.7})
}

func raw(desc, amount string) model.RawTransaction {
	return model.RawTransaction{
		DocumentID:  "jan.pdf",
		Page:        1,
		Line:        4,
		Description: desc,
		AmountText:  amount,
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Method:      model.MethodText,
	}
}

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	assert.GreaterOrEqual(t, len(r.Categories), 30)
	names := r.Names()
	assert.Equal(t, "paycheck", names[0])
	assert.Equal(t, CategoryOther, names[len(names)-1])
	assert.Contains(t, r.CreditKeywords, "ppd")
}

func TestPayrollPPDIsCreditPaycheck(t *testing.T) {
	got, findings, err := contractual().Classify(raw("Payroll PPD", "1,500.00"))
	require.NoError(t, err)

	assert.Equal(t, model.DirectionCredit, got.Direction)
	assert.Equal(t, "paycheck", got.Category)
	assert.InDelta(t, 1.0, got.Confidence, 0.0001)
	assert.Equal(t, "1500", got.Amount.String())
	assert.Equal(t, "jan.pdf:p1:l4", got.ID)
	assert.Empty(t, findings)
}

func TestBracketedPayrollPPDIsDebit(t *testing.T) {
	got, findings, err := contractual().Classify(raw("Payroll PPD", "(1,500.00)"))
	require.NoError(t, err)

	assert.Equal(t, model.DirectionDebit, got.Direction)
	assert.Equal(t, "paycheck", got.Category)
	require.Len(t, findings, 1)
	assert.Equal(t, CodeBracketOverridesCredit, findings[0].Code)
	assert.Equal(t, faults.KindClassificationAmbiguity, findings[0].Kind)
}

func TestBracketPolicySwitchOff(t *testing.T) {
	c := New(nil, Options{BracketOverridesCredit: false, LowConfidence: 0.7})
	got, findings, err := c.Classify(raw("Payroll PPD", "(1,500.00)"))
	require.NoError(t, err)

	assert.Equal(t, model.DirectionCredit, got.Direction)
	assert.Empty(t, findings)
}

func TestDirection(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		amount string
		hint   model.Direction
		want   model.Direction
	}{
		{"no keyword defaults to debit", "WHOLE FOODS MARKET #123", "84.12", "", model.DirectionDebit},
		{"credit keyword", "INTEREST PAID", "0.42", "", model.DirectionCredit},
		{"hint wins over default", "ACME CONSULTING INVOICE 1042", "3500.00", model.DirectionCredit, model.DirectionCredit},
		{"hint wins over keyword", "REFUND REVERSAL", "10.00", model.DirectionDebit, model.DirectionDebit},
		{"CR suffix", "MISC ADJUSTMENT", "25.00 CR", "", model.DirectionCredit},
		{"negative sign", "GITHUB", "-4.00", "", model.DirectionDebit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := raw(tt.desc, tt.amount)
			r.Hint = tt.hint
			got, _, err := contractual().Classify(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Direction)
		})
	}
}

func TestCategoryPriority(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"WHOLE FOODS MARKET #123", "groceries"},
		{"NETFLIX.COM", "streaming"},
		{"STARBUCKS STORE 1234", "coffee_shops"},
		{"CON ED OF NY", "utilities"},
		{"LYFT *RIDE", "rideshare"},
		{"ZZZ UNKNOWN MERCHANT", CategoryOther},
	}
	for _, tt := range tests {
		got, _, err := contractual().Classify(raw(tt.desc, "10.00"))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Category, tt.desc)
	}
}

func TestLowConfidenceFinding(t *testing.T) {
	got, findings, err := contractual().Classify(raw("ZZZ UNKNOWN MERCHANT", "10.00"))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, got.Confidence, 0.0001)
	require.Len(t, findings, 1)
	assert.Equal(t, CodeLowConfidence, findings[0].Code)
}

func TestSourceConfidenceScales(t *testing.T) {
	r := raw("NETFLIX.COM", "15.49")
	r.SourceConfidence = 0.8
	got, findings, err := contractual().Classify(r)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got.Confidence, 0.0001)
	assert.Empty(t, findings)

	r.Description = "ZZZ UNKNOWN MERCHANT"
	got, findings, err = contractual().Classify(r)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.Confidence, 0.0001)
	assert.Len(t, findings, 1)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := contractual()
	a, _, err := c.Classify(raw("Payroll PPD", "(1,500.00)"))
	require.NoError(t, err)
	b, _, err := c.Classify(raw("Payroll PPD", "(1,500.00)"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClassifyBadAmount(t *testing.T) {
	_, _, err := contractual().Classify(raw("NETFLIX.COM", "n/a"))
	assert.Error(t, err)
}

func TestParseRulesRejectsBadTables(t *testing.T) {
	tests := map[string]string{
		"empty":     "credit_keywords: [deposit]\n",
		"duplicate": "categories:\n  - {name: a, keywords: [x]}\n  - {name: a, keywords: [y]}\n",
		"other":     "categories:\n  - {name: other, keywords: [x]}\n",
	}
	for name, data := range tests {
		_, err := ParseRules([]byte(data))
		assert.ErrorIs(t, err, faults.ErrConfiguration, name)
	}
}

func TestParseRulesLowercases(t *testing.T) {
	r, err := ParseRules([]byte("credit_keywords: [PAYROLL]\ncategories:\n  - {name: pay, keywords: [ ACME ]}\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"payroll"}, r.CreditKeywords)
	assert.Equal(t, []string{"acme"}, r.Categories[0].Keywords)
}
