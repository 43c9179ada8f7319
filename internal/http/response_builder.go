package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"waist/internal/core"
	"waist/internal/log"
	appweb "waist/web"
)

// page is the data handed to every template.
type page struct {
	Title    string
	Username string
	Error    string
	Message  string

	Form   formValues
	Filter filterValues

	Transactions []core.Transaction
	Summary      core.Summary
	Bars         []bar
	Insights     core.Insights

	Action    string
	AIEnabled bool
	Token     string
	ResetLink string
}

// formValues echoes submitted fields back into a re-rendered form.
type formValues struct {
	Username string
	Date     string
	Amount   string
	Category string
	Note     string
}

// bar is one row of the category chart; Percent is relative to the largest
// category.
type bar struct {
	Category string
	Total    decimal.Decimal
	Percent  int
}

var templateFuncs = template.FuncMap{
	"money":    core.FormatAmount,
	"describe": describe,
}

func mustParseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html"))
}

// render executes name into a buffer first so a template error never
// leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	if data.Username == "" {
		data.Username = currentUser(r.Context())
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// serverError logs err with the request logger and answers 500 without
// leaking details.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, operation string) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ComponentHTTP, operation, log.ErrorTypeDatabase)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.clientIP.ClientIP(r),
		log.FieldPath, r.URL.Path)
	http.Error(w, "Too many requests, slow down.", http.StatusTooManyRequests)
}

func breakdownBars(breakdown []core.CategoryTotal) []bar {
	if len(breakdown) == 0 {
		return nil
	}
	largest := breakdown[0].Total
	for _, c := range breakdown[1:] {
		if c.Total.GreaterThan(largest) {
			largest = c.Total
		}
	}

	bars := make([]bar, 0, len(breakdown))
	for _, c := range breakdown {
		pct := 0
		if largest.IsPositive() && c.Total.IsPositive() {
			pct = int(c.Total.Div(largest).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
		}
		bars = append(bars, bar{Category: c.Category, Total: c.Total, Percent: pct})
	}
	return bars
}

// describe renders a free-form insight value. Model output is not typed,
// so objects print as sorted "key: value" pairs.
func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, t[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
