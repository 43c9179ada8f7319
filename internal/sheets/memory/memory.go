// Package memory is an in-process sheets.Writer used by tests and dry runs.
package memory

import (
	"context"
	"sync"

	"waist/internal/core"
	ports "waist/internal/sheets"
)

type Sheet struct {
	mu     sync.Mutex
	rows   []core.Transaction
	writes int
	err    error
}

var _ ports.Writer = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// FailWith makes subsequent writes return err (nil clears it).
func (s *Sheet) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Sheet) ReplaceAll(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append([]core.Transaction(nil), txs...)
	s.writes++
	return nil
}

// Rows returns a copy of the last written transactions.
func (s *Sheet) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}

// Writes counts successful ReplaceAll calls.
func (s *Sheet) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
