package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waist/internal/amqp"
	"waist/internal/core"
	"waist/internal/metrics"
	"waist/internal/sheets/memory"
)

type stubLister struct {
	txs []core.Transaction
	err error
}

func (s *stubLister) List(context.Context) ([]core.Transaction, error) {
	return s.txs, s.err
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	store := &stubLister{txs: []core.Transaction{
		{ID: 2, Date: "2025-01-06", Category: "Bills", Amount: decimal.NewFromInt(60)},
		{ID: 1, Date: "2025-01-05", Category: "Food", Amount: decimal.NewFromInt(10)},
	}}
	sheet := memory.New()
	w := NewMirrorWorker(store, sheet, metrics.New(), nil)

	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewTransactionEvent(2, amqp.ActionCreated)))

	rows := sheet.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].ID)
	assert.False(t, w.LastSync().IsZero())
}

func TestMirrorWorker_DeleteRewritesWithoutRow(t *testing.T) {
	store := &stubLister{txs: []core.Transaction{{ID: 1}, {ID: 2}}}
	sheet := memory.New()
	w := NewMirrorWorker(store, sheet, nil, nil)

	require.NoError(t, w.Sync(context.Background()))
	store.txs = store.txs[:1]
	require.NoError(t, w.HandleEvent(context.Background(), amqp.NewTransactionEvent(2, amqp.ActionDeleted)))

	assert.Len(t, sheet.Rows(), 1)
	assert.Equal(t, 2, sheet.Writes())
}

func TestMirrorWorker_Errors(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		sheet := memory.New()
		w := NewMirrorWorker(&stubLister{err: errors.New("db locked")}, sheet, nil, nil)

		err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(1, amqp.ActionUpdated))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list transactions")
		assert.Zero(t, sheet.Writes())
	})

	t.Run("sheet failure", func(t *testing.T) {
		sheet := memory.New()
		sheet.FailWith(errors.New("quota"))
		w := NewMirrorWorker(&stubLister{}, sheet, nil, nil)

		err := w.HandleEvent(context.Background(), amqp.NewTransactionEvent(1, amqp.ActionCreated))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mirror to sheet")
		assert.True(t, w.LastSync().IsZero())
	})
}

func TestMirrorWorker_RunPeriodic(t *testing.T) {
	sheet := memory.New()
	w := NewMirrorWorker(&stubLister{txs: []core.Transaction{{ID: 1}}}, sheet, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sheet.Writes() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
