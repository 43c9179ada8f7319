package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"waist/internal/core"
	"waist/internal/export"
	"waist/internal/log"
)

const exportFilename = "waist_export.csv"

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load dashboard", err, log.OpRead)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", page{Title: "Dashboard", Summary: summary})
}

// handleTransactions lists everything, or the subset matched by one of the
// category, date, month, min or max query parameters.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	filter, values, filtered, err := parseFilterQuery(r.URL.Query())
	if err != nil {
		s.render(w, r, http.StatusBadRequest, "transactions.html", page{
			Title:  "Transactions",
			Filter: values,
			Error:  "Invalid filter: " + err.Error(),
		})
		return
	}

	var txs []core.Transaction
	if filtered {
		txs, err = s.transactions.Filter(r.Context(), filter)
	} else {
		txs, err = s.transactions.List(r.Context())
	}
	if err != nil {
		s.serverError(w, r, "Failed to list transactions", err, log.OpList)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Transactions listed",
		log.FieldFilter, filter.String(),
		"count", len(txs))

	s.render(w, r, http.StatusOK, "transactions.html", page{
		Title:        "Transactions",
		Filter:       values,
		Transactions: txs,
	})
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "form.html", s.formPage("Add expense", "/add", formValues{}))
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	t, fv, err := parseTransactionForm(r)
	if err != nil {
		data := s.formPage("Add expense", "/add", fv)
		data.Error = formError(err)
		s.render(w, r, http.StatusUnprocessableEntity, "form.html", data)
		return
	}

	if _, err := s.transactions.Create(r.Context(), t); err != nil {
		s.serverError(w, r, "Failed to add transaction", err, log.OpCreate)
		return
	}
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "Failed to load transaction", err, log.OpRead)
		return
	}
	if t == nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "form.html", s.formPage("Edit expense", editPath(id), transactionForm(*t)))
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	t, fv, err := parseTransactionForm(r)
	if err != nil {
		data := s.formPage("Edit expense", editPath(id), fv)
		data.Error = formError(err)
		s.render(w, r, http.StatusUnprocessableEntity, "form.html", data)
		return
	}

	t.ID = id
	found, err := s.transactions.Update(r.Context(), t)
	if err != nil {
		s.serverError(w, r, "Failed to update transaction", err, log.OpUpdate)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

// handleDelete is idempotent: deleting a missing id still redirects.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	found, err := s.transactions.Delete(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "Failed to delete transaction", err, log.OpDelete)
		return
	}
	if !found {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Delete of missing transaction",
			log.FieldTransactionID, id)
	}
	http.Redirect(w, r, "/transactions", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to export transactions", err, log.OpExport)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename)
	if err := export.WriteCSV(w, txs); err != nil {
		// Headers are gone by now; all that is left is to log.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export interrupted",
			log.FieldError, err,
			log.FieldOperation, log.OpExport)
	}
}

// handleSuggestCategory answers {"category": ...}. An empty amount counts
// as zero.
func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}

	amount := decimal.Zero
	if raw := sanitizeInput(r.PostForm.Get("amount")); raw != "" {
		parsed, err := core.ParseAmount(raw)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		amount = parsed
	}

	category := s.advisor.SuggestCategory(r.Context(),
		sanitizeInput(r.PostForm.Get("note")),
		amount,
		sanitizeInput(r.PostForm.Get("date")),
		sanitizeInput(r.PostForm.Get("description")))

	writeJSON(w, http.StatusOK, map[string]string{"category": category})
}

func (s *Server) formPage(title, action string, fv formValues) page {
	return page{
		Title:     title,
		Action:    action,
		Form:      fv,
		AIEnabled: s.advisor.Enabled(),
	}
}

func editPath(id int64) string {
	return "/edit/" + strconv.FormatInt(id, 10)
}

func formError(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a number."
	case errors.Is(err, errMissingField):
		return "Date, amount and category are required."
	default:
		return "Invalid form submission."
	}
}
