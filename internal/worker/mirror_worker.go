package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"waist/internal/amqp"
	"waist/internal/core"
	"waist/internal/log"
	"waist/internal/metrics"
	"waist/internal/sheets"
)

// TransactionLister supplies the rows to mirror.
type TransactionLister interface {
	List(ctx context.Context) ([]core.Transaction, error)
}

// MirrorWorker keeps a sheet in step with the transaction store. Every
// event triggers a full rewrite, so a missed or duplicated event heals on
// the next one.
type MirrorWorker struct {
	store   TransactionLister
	sheet   sheets.Writer
	metrics *metrics.Metrics
	logger  *log.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewMirrorWorker(store TransactionLister, sheet sheets.Writer, m *metrics.Metrics, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		store:   store,
		sheet:   sheet,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is an amqp.Handler.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldTransactionID, event.ID,
		"action", event.Action)

	if err := w.Sync(ctx); err != nil {
		w.metrics.EventHandled(string(event.Action), metrics.OutcomeError)
		return err
	}
	w.metrics.EventHandled(string(event.Action), metrics.OutcomeOK)
	return nil
}

// Sync rewrites the sheet from the current store contents.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	txs, err := w.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if err := w.sheet.ReplaceAll(ctx, txs); err != nil {
		return fmt.Errorf("mirror to sheet: %w", err)
	}
	w.lastSync = time.Now()
	w.logger.DebugContext(ctx, "Sheet synchronised",
		log.FieldOperation, log.OpMirror,
		"rows", len(txs))
	return nil
}

// LastSync reports when the sheet was last written successfully.
func (w *MirrorWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// RunPeriodic resyncs every interval until ctx is done, covering events
// lost while the worker was down.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err.Error())
			}
		}
	}
}
