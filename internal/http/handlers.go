package http

import (
	"context"
	"net/http"
	"time"

	"waist/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady checks that the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status, code := "ready", http.StatusOK
	if err := s.transactions.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["database"] = "failed"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to compute analysis", err, log.OpRead)
		return
	}
	s.render(w, r, http.StatusOK, "analysis.html", page{
		Title:   "Analysis",
		Summary: summary,
		Bars:    breakdownBars(summary.Breakdown),
	})
}

// handleInsights never fails on the model side; the advisor falls back to
// a canned answer.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load transactions", err, log.OpInsights)
		return
	}
	s.render(w, r, http.StatusOK, "insights.html", page{
		Title:    "Insights",
		Insights: s.advisor.Insights(r.Context(), txs),
	})
}
