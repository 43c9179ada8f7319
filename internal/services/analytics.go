package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"waist/internal/core"
)

// Analytics computes the dashboard figures.
type Analytics struct {
	store Store
}

func NewAnalytics(store Store) *Analytics {
	return &Analytics{store: store}
}

// Summary runs the independent aggregate queries concurrently. The first
// failure cancels the rest.
func (a *Analytics) Summary(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		s.TotalToday, err = a.store.TotalToday(ctx)
		return wrap("total today", err)
	})
	g.Go(func() (err error) {
		s.TotalMonth, err = a.store.TotalThisMonth(ctx)
		return wrap("total this month", err)
	})
	g.Go(func() (err error) {
		s.Top, err = a.store.TopCategory(ctx)
		return wrap("top category", err)
	})
	g.Go(func() (err error) {
		s.AverageDaily, err = a.store.AverageDailyThisMonth(ctx)
		return wrap("average daily", err)
	})
	g.Go(func() (err error) {
		s.Count, err = a.store.Count(ctx)
		return wrap("count", err)
	})
	g.Go(func() (err error) {
		s.Breakdown, err = a.store.CategoryBreakdown(ctx)
		return wrap("category breakdown", err)
	})

	if err := g.Wait(); err != nil {
		return core.Summary{}, err
	}
	return s, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
