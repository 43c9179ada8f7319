package storage

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"waist/internal/core"
)

type filterKind int

const (
	filterCategory filterKind = iota + 1
	filterDate
	filterMonth
	filterMinAmount
	filterMaxAmount
)

// ErrEmptyFilter is returned when Filter is called with the zero Filter.
var ErrEmptyFilter = errors.New("empty filter")

// Filter is a single-field predicate over the transaction set. Each kind
// carries its own result order:
//
//	ByCategory, ByDate, ByMonth  newest date first
//	MinAmount                    largest amount first
//	MaxAmount                    smallest amount first
type Filter struct {
	kind   filterKind
	text   string
	amount decimal.Decimal
}

// ByCategory matches the category exactly.
func ByCategory(category string) Filter {
	return Filter{kind: filterCategory, text: category}
}

// ByDate matches the YYYY-MM-DD date exactly.
func ByDate(date string) Filter {
	return Filter{kind: filterDate, text: date}
}

// ByMonth matches dates whose first seven characters equal month (YYYY-MM).
func ByMonth(month string) Filter {
	return Filter{kind: filterMonth, text: month}
}

// MinAmount matches amount >= threshold.
func MinAmount(threshold decimal.Decimal) Filter {
	return Filter{kind: filterMinAmount, amount: threshold}
}

// MaxAmount matches amount <= threshold.
func MaxAmount(threshold decimal.Decimal) Filter {
	return Filter{kind: filterMaxAmount, amount: threshold}
}

// FilterFields are the field names ParseFilter understands, in the order
// front ends give them precedence.
var FilterFields = []string{"category", "date", "month", "min", "max"}

// ParseFilter validates user input for one filter field. Dates and months
// must be well formed; amounts accept a decimal comma.
func ParseFilter(field, value string) (Filter, error) {
	switch field {
	case "category":
		category, err := core.ValidateCategory(value)
		if err != nil {
			return Filter{}, err
		}
		return ByCategory(category), nil
	case "date":
		date, err := core.ValidateDate(value)
		if err != nil {
			return Filter{}, err
		}
		return ByDate(date), nil
	case "month":
		month, err := core.ValidateMonth(value)
		if err != nil {
			return Filter{}, err
		}
		return ByMonth(month), nil
	case "min", "max":
		amount, err := core.ParseAmount(value)
		if err != nil {
			return Filter{}, err
		}
		if field == "min" {
			return MinAmount(amount), nil
		}
		return MaxAmount(amount), nil
	default:
		return Filter{}, fmt.Errorf("unknown filter field %q", field)
	}
}

// clause returns the WHERE and ORDER BY fragments with their arguments.
func (f Filter) clause() (where, order string, args []any, err error) {
	switch f.kind {
	case filterCategory:
		return "category = ?", "date DESC, id DESC", []any{f.text}, nil
	case filterDate:
		return "date = ?", "date DESC, id DESC", []any{f.text}, nil
	case filterMonth:
		return "substr(date, 1, 7) = ?", "date DESC, id DESC", []any{f.text}, nil
	case filterMinAmount:
		return "amount >= ?", "amount DESC, id DESC", []any{f.amount.InexactFloat64()}, nil
	case filterMaxAmount:
		return "amount <= ?", "amount ASC, id ASC", []any{f.amount.InexactFloat64()}, nil
	default:
		return "", "", nil, ErrEmptyFilter
	}
}

// String is used in log lines.
func (f Filter) String() string {
	switch f.kind {
	case filterCategory:
		return fmt.Sprintf("category=%s", f.text)
	case filterDate:
		return fmt.Sprintf("date=%s", f.text)
	case filterMonth:
		return fmt.Sprintf("month=%s", f.text)
	case filterMinAmount:
		return fmt.Sprintf("amount>=%s", f.amount)
	case filterMaxAmount:
		return fmt.Sprintf("amount<=%s", f.amount)
	default:
		return "none"
	}
}
