// Package export writes transactions as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"waist/internal/core"
)

// Header is the first CSV row.
var Header = []string{"ID", "Date", "Category", "Amount", "Note"}

// WriteCSV writes the header followed by one row per transaction.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		if err := cw.Write(Row(t)); err != nil {
			return fmt.Errorf("write row %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row renders one transaction in Header order.
func Row(t core.Transaction) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Date,
		t.Category,
		core.FormatAmount(t.Amount),
		t.Note,
	}
}

// EnsureCSVExtension appends ".csv" unless the name already ends with it.
func EnsureCSVExtension(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return name
	}
	return name + ".csv"
}

// WriteFile exports to path, adding the extension if missing, and returns
// the path actually written.
func WriteFile(path string, txs []core.Transaction) (string, error) {
	path = EnsureCSVExtension(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := WriteCSV(f, txs); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}
