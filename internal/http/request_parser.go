package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"waist/internal/core"
	"waist/internal/storage"
)

var (
	errMissingField = errors.New("date, amount and category are required")
	errInvalidID    = errors.New("invalid transaction id")
)

// filterValues mirrors the /transactions query string.
type filterValues struct {
	Category string
	Date     string
	Month    string
	Min      string
	Max      string
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// parseFilterQuery applies the first non-empty of category, date, month,
// min and max. ok is false when no filter was requested.
func parseFilterQuery(q url.Values) (f storage.Filter, values filterValues, ok bool, err error) {
	values = filterValues{
		Category: sanitizeInput(q.Get("category")),
		Date:     sanitizeInput(q.Get("date")),
		Month:    sanitizeInput(q.Get("month")),
		Min:      sanitizeInput(q.Get("min")),
		Max:      sanitizeInput(q.Get("max")),
	}

	for _, field := range storage.FilterFields {
		value := sanitizeInput(q.Get(field))
		if value == "" {
			continue
		}
		f, err = storage.ParseFilter(field, value)
		return f, values, err == nil, err
	}
	return f, values, false, nil
}

// parseTransactionForm reads an add/edit form. The date is taken as
// submitted; only presence is checked. The returned formValues are safe to
// echo back when err is non-nil.
func parseTransactionForm(r *http.Request) (core.Transaction, formValues, error) {
	if err := r.ParseForm(); err != nil {
		return core.Transaction{}, formValues{}, err
	}
	fv := formValues{
		Date:     sanitizeInput(r.PostForm.Get("date")),
		Amount:   sanitizeInput(r.PostForm.Get("amount")),
		Category: sanitizeInput(r.PostForm.Get("category")),
		Note:     sanitizeInput(r.PostForm.Get("note")),
	}
	if fv.Date == "" || fv.Amount == "" || fv.Category == "" {
		return core.Transaction{}, fv, errMissingField
	}

	amount, err := core.ParseAmount(fv.Amount)
	if err != nil {
		return core.Transaction{}, fv, err
	}

	return core.Transaction{
		Date:     fv.Date,
		Category: fv.Category,
		Amount:   amount,
		Note:     fv.Note,
	}, fv, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

func transactionForm(t core.Transaction) formValues {
	return formValues{
		Date:     t.Date,
		Amount:   core.FormatAmount(t.Amount),
		Category: t.Category,
		Note:     t.Note,
	}
}
