package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the on-disk and on-screen form of a transaction date.
	DateLayout = "2006-01-02"
	// MonthLayout is the YYYY-MM prefix used by month filters and sums.
	MonthLayout = "2006-01"
)

type (
	// Transaction is one recorded expense.
	Transaction struct {
		ID       int64
		Date     string // YYYY-MM-DD
		Category string
		Amount   decimal.Decimal
		Note     string
	}

	// CategoryTotal is the summed amount of a single category.
	CategoryTotal struct {
		Category string
		Total    decimal.Decimal
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate checks the YYYY-MM-DD shape and that the value is a real
// calendar date (2025-02-30 is rejected).
func ValidateDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !datePattern.MatchString(s) {
		return "", ErrInvalidDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", ErrInvalidDate
	}
	return s, nil
}

// ValidateMonth checks a YYYY-MM month prefix.
func ValidateMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(MonthLayout) {
		return "", ErrInvalidMonth
	}
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return "", ErrInvalidMonth
	}
	return s, nil
}

// ValidateCategory returns the trimmed category or ErrEmptyCategory.
func ValidateCategory(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCategory
	}
	return s, nil
}

// Validate applies the CLI boundary rules. The store itself never calls it.
func (t Transaction) Validate() error {
	if _, err := ValidateDate(t.Date); err != nil {
		return err
	}
	if _, err := ValidateCategory(t.Category); err != nil {
		return err
	}
	return nil
}
