package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waist/internal/amqp"
	"waist/internal/core"
	"waist/internal/log"
	"waist/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) actions() []amqp.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.Action, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

func newRepo(t *testing.T, today string) *storage.SQLiteRepository {
	t.Helper()
	now, err := time.Parse(core.DateLayout, today)
	require.NoError(t, err)
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "svc.db"),
		storage.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{Format: log.FormatJSON, Output: buf})
}

func sample(date, category, amount string) core.Transaction {
	return core.Transaction{Date: date, Category: category, Amount: decimal.RequireFromString(amount)}
}

func TestTransactionService_PublishesAfterWrites(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	var logs bytes.Buffer
	svc := NewTransactionService(newRepo(t, "2025-01-10"), pub, nil, quietLogger(&logs))

	id, err := svc.Create(ctx, sample("2025-01-05", "Food", "10"))
	require.NoError(t, err)

	updated := sample("2025-01-06", "Groceries", "12.5")
	updated.ID = id
	found, err := svc.Update(ctx, updated)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, []amqp.Action{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}, pub.actions())
	for _, e := range pub.events {
		assert.Equal(t, id, e.ID)
	}
	assert.Contains(t, logs.String(), "Transaction created")
}

func TestTransactionService_MissesDoNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewTransactionService(newRepo(t, "2025-01-10"), pub, nil, quietLogger(&bytes.Buffer{}))

	missing := sample("2025-01-05", "Food", "1")
	missing.ID = 999
	found, err := svc.Update(ctx, missing)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.Delete(ctx, 999)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Empty(t, pub.actions())
}

func TestTransactionService_PublishFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	var logs bytes.Buffer
	svc := NewTransactionService(newRepo(t, "2025-01-10"), pub, nil, quietLogger(&logs))

	id, err := svc.Create(ctx, sample("2025-01-05", "Food", "10"))
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, logs.String(), "broker down")
}

func TestTransactionService_WithoutPublisher(t *testing.T) {
	svc := NewTransactionService(newRepo(t, "2025-01-10"), nil, nil, nil)

	_, err := svc.Create(context.Background(), sample("2025-01-05", "Food", "10"))
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}

func TestTransactionService_CloseClosesPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(newRepo(t, "2025-01-10"), pub, nil, nil)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestAnalytics_Summary(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t, "2025-01-05")
	svc := NewTransactionService(repo, nil, nil, nil)

	for _, in := range []core.Transaction{
		sample("2025-01-05", "Food", "10"),
		sample("2025-01-05", "Transport", "20"),
		sample("2025-01-20", "Food", "32"),
		sample("2024-12-31", "Bills", "100"),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	summary, err := NewAnalytics(svc).Summary(ctx)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(30).Equal(summary.TotalToday), summary.TotalToday.String())
	assert.True(t, decimal.NewFromInt(62).Equal(summary.TotalMonth), summary.TotalMonth.String())
	assert.True(t, decimal.NewFromInt(2).Equal(summary.AverageDaily), summary.AverageDaily.String())
	assert.EqualValues(t, 4, summary.Count)
	require.NotNil(t, summary.Top)
	assert.Equal(t, "Bills", summary.Top.Category)
	require.Len(t, summary.Breakdown, 3)
	assert.Equal(t, "Bills", summary.Breakdown[0].Category)
}

func TestAnalytics_SummaryEmpty(t *testing.T) {
	summary, err := NewAnalytics(newRepo(t, "2025-02-01")).Summary(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.TotalToday.IsZero())
	assert.True(t, summary.TotalMonth.IsZero())
	assert.Nil(t, summary.Top)
	assert.Empty(t, summary.Breakdown)
	assert.Zero(t, summary.Count)
}

func TestAnalytics_SummaryPropagatesErrors(t *testing.T) {
	repo := newRepo(t, "2025-02-01")
	require.NoError(t, repo.Close())

	_, err := NewAnalytics(repo).Summary(context.Background())
	assert.Error(t, err)
}
