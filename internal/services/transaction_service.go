package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"waist/internal/amqp"
	"waist/internal/core"
	"waist/internal/log"
	"waist/internal/metrics"
	"waist/internal/storage"
)

// Store is the transaction persistence the service builds on.
type Store interface {
	Create(ctx context.Context, t core.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (*core.Transaction, error)
	List(ctx context.Context) ([]core.Transaction, error)
	Filter(ctx context.Context, f storage.Filter) ([]core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	Total(ctx context.Context) (decimal.Decimal, error)
	TotalOnDate(ctx context.Context, date string) (decimal.Decimal, error)
	TotalToday(ctx context.Context) (decimal.Decimal, error)
	TotalForMonth(ctx context.Context, month string) (decimal.Decimal, error)
	TotalThisMonth(ctx context.Context) (decimal.Decimal, error)
	TotalByCategory(ctx context.Context, category string) (decimal.Decimal, error)
	AverageDailyThisMonth(ctx context.Context) (decimal.Decimal, error)
	TopCategory(ctx context.Context) (*core.CategoryTotal, error)
	CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error)
	Count(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*storage.SQLiteRepository)(nil)

// EventPublisher receives change notifications after successful writes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
	Close() error
}

// TransactionService is the single write path used by the web server and
// the CLI. It stores first, then announces the change; a failed announce is
// logged and never undoes the write.
type TransactionService struct {
	Store
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *log.Logger
}

// NewTransactionService accepts nil events, metrics and logger.
func NewTransactionService(store Store, events EventPublisher, m *metrics.Metrics, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		Store:   store,
		events:  events,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentStore),
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := s.Store.Create(ctx, t)
	if err != nil {
		s.metrics.TransactionOp(log.OpCreate, metrics.OutcomeError)
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	s.metrics.TransactionOp(log.OpCreate, metrics.OutcomeOK)

	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithTransaction(id, t.Date, t.Category, core.FormatAmount(t.Amount)).
			ToSlice()...)
	s.publish(ctx, id, amqp.ActionCreated)
	return id, nil
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (bool, error) {
	found, err := s.Store.Update(ctx, t)
	if err != nil {
		s.metrics.TransactionOp(log.OpUpdate, metrics.OutcomeError)
		return false, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if !found {
		s.metrics.TransactionOp(log.OpUpdate, metrics.OutcomeNotFound)
		return false, nil
	}
	s.metrics.TransactionOp(log.OpUpdate, metrics.OutcomeOK)
	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldTransactionID, t.ID)
	s.publish(ctx, t.ID, amqp.ActionUpdated)
	return true, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) (bool, error) {
	found, err := s.Store.Delete(ctx, id)
	if err != nil {
		s.metrics.TransactionOp(log.OpDelete, metrics.OutcomeError)
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if !found {
		s.metrics.TransactionOp(log.OpDelete, metrics.OutcomeNotFound)
		return false, nil
	}
	s.metrics.TransactionOp(log.OpDelete, metrics.OutcomeOK)
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id)
	s.publish(ctx, id, amqp.ActionDeleted)
	return true, nil
}

func (s *TransactionService) publish(ctx context.Context, id int64, action amqp.Action) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(id, action)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, id,
			"action", action,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeExternal)
	}
}

// Close releases the store and the event publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
