package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindicatenyc/vindicate-app/internal/model"
)

func TestMatchDate(t *testing.T) {
	stmt := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		line string
		want string
		text string
	}{
		{"01/15/2025 COFFEE 4.50", "2025-01-15", "01/15/2025"},
		{"1/5/25 COFFEE 4.50", "2025-01-05", "1/5/25"},
		{"01-15-2025 COFFEE 4.50", "2025-01-15", "01-15-2025"},
		{"2025-01-15 COFFEE 4.50", "2025-01-15", "2025-01-15"},
		{"Jan 15, 2025 COFFEE 4.50", "2025-01-15", "Jan 15, 2025"},
		{"JAN 15 2025 COFFEE 4.50", "2025-01-15", "JAN 15 2025"},
		{"January 15, 2025 COFFEE 4.50", "2025-01-15", "January 15, 2025"},
		{"SEPTEMBER 3 2025 COFFEE 4.50", "2025-09-03", "SEPTEMBER 3 2025"},
		{"June 30, 2025 COFFEE 4.50", "2025-06-30", "June 30, 2025"},
		{"03/02 COFFEE 4.50", "2025-03-02", "03/02"},
		{"11/30 COFFEE 4.50", "2024-11-30", "11/30"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m, ok := matchDate(tt.line, stmt)
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Date.Format("2006-01-02"))
			assert.Equal(t, tt.text, m.Text)
		})
	}

	for _, line := range []string{"COFFEE 01/15/2025 4.50", "13/45/2025 BAD 1.00", "Page 1 of 3", "Sept 3, 2025 COFFEE 4.50"} {
		_, ok := matchDate(line, stmt)
		assert.False(t, ok, line)
	}
}

func TestParseText(t *testing.T) {
	page := model.Page{Number: 3, Text: "Date Description Amount\n" +
		"01/05/2025 AB 9.99\n" +
		"01/06/2025 SHORT\n" +
		"01/07/2025 SPOTIFY USA $10.99\n" +
		"01/08/2025 TRANSFER FROM SAVINGS 250.00 CR\n" +
		"01/09/2025 RETURNED ITEM FEE 35.00-\n"}

	out, noYear := parseText(model.Document{ID: "d"}, page)

	require.Equal(t, StatusOK, out.Status)
	assert.Zero(t, noYear)
	require.Len(t, out.Transactions, 3)
	assert.Equal(t, "SPOTIFY USA", out.Transactions[0].Description)
	assert.Equal(t, "$10.99", out.Transactions[0].AmountText)
	assert.Equal(t, 4, out.Transactions[0].Line)
	assert.Equal(t, 3, out.Transactions[0].Page)
	assert.Equal(t, "250.00 CR", out.Transactions[1].AmountText)
	assert.Equal(t, "35.00-", out.Transactions[2].AmountText)
}

func TestParseTextNoMatches(t *testing.T) {
	out, _ := parseText(model.Document{ID: "d"}, model.Page{Number: 1, Text: "Thank you for banking with us."})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Reason, "no transaction lines")
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "caf", truncate("café", 4))
	assert.Equal(t, "café", truncate("café", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
}
