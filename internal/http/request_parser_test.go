package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waist/internal/core"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello world", sanitizeInput("  hello world \n"))
	assert.Equal(t, "ab", sanitizeInput("a\x00b"))
	assert.Equal(t, "a\tb", sanitizeInput("a\tb"))
}

func TestParseFilterQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     string
		filtered bool
		wantErr  bool
	}{
		{name: "none", query: "", want: "none"},
		{name: "category", query: "category=Food", want: "category=Food", filtered: true},
		{name: "category wins over month", query: "month=2025-01&category=Food", want: "category=Food", filtered: true},
		{name: "date", query: "date=2025-01-05", want: "date=2025-01-05", filtered: true},
		{name: "month", query: "month=2025-01", want: "month=2025-01", filtered: true},
		{name: "min with comma", query: "min=12,5", want: "amount>=12.5", filtered: true},
		{name: "max", query: "max=40", want: "amount<=40", filtered: true},
		{name: "bad date", query: "date=2025-02-30", wantErr: true},
		{name: "bad month", query: "month=2025-13", wantErr: true},
		{name: "bad min", query: "min=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			f, _, filtered, err := parseFilterQuery(q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.filtered, filtered)
			assert.Equal(t, tt.want, f.String())
		})
	}
}

func TestParseTransactionForm(t *testing.T) {
	newReq := func(form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	got, fv, err := parseTransactionForm(newReq(url.Values{
		"date": {" 2025-03-01 "}, "amount": {"7,25"}, "category": {"Food"}, "note": {"tea"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", got.Date)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("7.25")))
	assert.Equal(t, "7,25", fv.Amount)

	_, fv, err = parseTransactionForm(newReq(url.Values{"date": {"2025-03-01"}, "amount": {"x"}, "category": {"Food"}}))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, "Food", fv.Category)

	_, _, err = parseTransactionForm(newReq(url.Values{"amount": {"1"}, "category": {"Food"}}))
	assert.ErrorIs(t, err, errMissingField)
}

func TestBreakdownBars(t *testing.T) {
	bars := breakdownBars([]core.CategoryTotal{
		{Category: "Food", Total: decimal.NewFromInt(40)},
		{Category: "Bills", Total: decimal.NewFromInt(10)},
		{Category: "Refund", Total: decimal.NewFromInt(-5)},
	})
	require.Len(t, bars, 3)
	assert.Equal(t, 100, bars[0].Percent)
	assert.Equal(t, 25, bars[1].Percent)
	assert.Equal(t, 0, bars[2].Percent)

	assert.Nil(t, breakdownBars(nil))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Food", describe("Food"))
	assert.Equal(t, "amount: 12, category: Food", describe(map[string]any{"category": "Food", "amount": 12}))
	assert.Equal(t, "3.5", describe(3.5))
	assert.Equal(t, "", describe(nil))
}
