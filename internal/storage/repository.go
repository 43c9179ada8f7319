package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"waist/internal/core"

	_ "modernc.org/sqlite"
)

const selectTransactions = `SELECT id, date, category, amount, note FROM transactions`

// SQLiteRepository is the transaction store and the credential table
// accessor. Every method runs a single statement on the pooled handle.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// Option customizes a repository at construction.
type Option func(*SQLiteRepository)

// WithClock sets the clock used for "today" and "this month".
func WithClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies the embedded schema.
func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if dbPath == "" {
		return nil, errors.New("empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts t (its ID is ignored) and returns the assigned id.
func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, category, amount, note) VALUES (?, ?, ?, ?)`,
		t.Date, t.Category, t.Amount.InexactFloat64(), t.Note)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read transaction id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", t.Date,
		"category", t.Category,
		"amount", t.Amount.String())

	return id, nil
}

// Get returns the transaction with the given id, or nil if there is none.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransactions+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &t, nil
}

// List returns every transaction, newest date first.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	return r.query(ctx, selectTransactions+` ORDER BY date DESC, id DESC`)
}

// Filter returns the transactions matching f in the order f prescribes.
func (r *SQLiteRepository) Filter(ctx context.Context, f Filter) ([]core.Transaction, error) {
	where, order, args, err := f.clause()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, selectTransactions+` WHERE `+where+` ORDER BY `+order, args...)
}

// Update replaces every field of the row t.ID. A missing id is not an
// error; the returned bool reports whether a row matched.
func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, category = ?, amount = ?, note = ? WHERE id = ?`,
		t.Date, t.Category, t.Amount.InexactFloat64(), t.Note, t.ID)
	if err != nil {
		return false, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return affected(res)
}

// Delete removes the row id. Same miss semantics as Update.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return affected(res)
}

// Total sums every transaction.
func (r *SQLiteRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, "")
}

// TotalOnDate sums the transactions of one YYYY-MM-DD date.
func (r *SQLiteRepository) TotalOnDate(ctx context.Context, date string) (decimal.Decimal, error) {
	return r.sum(ctx, "date = ?", date)
}

// TotalToday sums the transactions dated today.
func (r *SQLiteRepository) TotalToday(ctx context.Context) (decimal.Decimal, error) {
	return r.TotalOnDate(ctx, r.now().Format(core.DateLayout))
}

// TotalForMonth sums the transactions of one YYYY-MM month.
func (r *SQLiteRepository) TotalForMonth(ctx context.Context, month string) (decimal.Decimal, error) {
	return r.sum(ctx, "substr(date, 1, 7) = ?", month)
}

// TotalThisMonth sums the calendar month containing now.
func (r *SQLiteRepository) TotalThisMonth(ctx context.Context) (decimal.Decimal, error) {
	return r.TotalForMonth(ctx, r.now().Format(core.MonthLayout))
}

// TotalByCategory sums one category.
func (r *SQLiteRepository) TotalByCategory(ctx context.Context, category string) (decimal.Decimal, error) {
	return r.sum(ctx, "category = ?", category)
}

// AverageDailyThisMonth divides this month's total by the number of days
// in the month.
func (r *SQLiteRepository) AverageDailyThisMonth(ctx context.Context) (decimal.Decimal, error) {
	now := r.now()
	total, err := r.TotalForMonth(ctx, now.Format(core.MonthLayout))
	if err != nil {
		return decimal.Zero, err
	}
	days := core.DaysInMonth(now.Year(), now.Month())
	return total.Div(decimal.NewFromInt(int64(days))), nil
}

// TopCategory returns the category with the largest total, or nil when
// there are no transactions. Equal totals resolve by category name.
func (r *SQLiteRepository) TopCategory(ctx context.Context) (*core.CategoryTotal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT category, SUM(amount) AS total FROM transactions
		 GROUP BY category ORDER BY total DESC, category ASC LIMIT 1`)

	var ct core.CategoryTotal
	if err := row.Scan(&ct.Category, &ct.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("top category: %w", err)
	}
	return &ct, nil
}

// CategoryBreakdown returns one total per category, largest first.
func (r *SQLiteRepository) CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount) AS total FROM transactions
		 GROUP BY category ORDER BY total DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return out, nil
}

// Count returns the number of transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) sum(ctx context.Context, where string, args ...any) (decimal.Decimal, error) {
	q := `SELECT COALESCE(SUM(amount), 0) FROM transactions`
	if where != "" {
		q += ` WHERE ` + where
	}
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		note sql.NullString
	)
	if err := s.Scan(&t.ID, &t.Date, &t.Category, &t.Amount, &note); err != nil {
		return core.Transaction{}, err
	}
	t.Note = note.String
	return t, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
