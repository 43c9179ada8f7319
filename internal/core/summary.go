package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary bundles the analytics shown on the dashboard and by the CLI.
type Summary struct {
	TotalToday   decimal.Decimal
	TotalMonth   decimal.Decimal
	Top          *CategoryTotal // nil when there are no transactions
	AverageDaily decimal.Decimal
	Count        int64
	Breakdown    []CategoryTotal
}

// Insights is the structured answer of the insights model.
type Insights struct {
	Summary            string         `json:"summary"`
	TopCategories      []any          `json:"top_categories"`
	HighestTransaction map[string]any `json:"highest_transaction"`
	Recommendation     string         `json:"recommendation"`
}

// DaysInMonth returns the number of days of the given calendar month,
// leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
