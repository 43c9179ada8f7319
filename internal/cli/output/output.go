// Package output renders CLI messages and transaction tables.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"waist/internal/core"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")
	colorBorder  = lipgloss.Color("#4B5563")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
)

// TransactionHeaders is the column order of every transaction table.
var TransactionHeaders = []string{"ID", "Date", "Category", "Amount", "Note"}

// Printer writes styled lines to w.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, warningStyle.Render("⚠ ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, errorStyle.Render("✗ ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, infoStyle.Render("ℹ ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a title with an underline of the same width.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, primaryStyle.Render(title))
	fmt.Fprintln(p.w, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// Figure prints a labelled amount, e.g. "Total Spent Today: 12.00".
func (p *Printer) Figure(label string, amount string) {
	fmt.Fprintln(p.w, infoStyle.Render(label+":")+" "+successStyle.Render(amount))
}

// Transactions prints rows as a bordered table, or a notice when empty.
func (p *Printer) Transactions(txs []core.Transaction) {
	if len(txs) == 0 {
		p.Warning("No matching expenses found.")
		return
	}
	fmt.Fprintln(p.w, TransactionTable(txs))
}

// Breakdown prints per-category totals.
func (p *Printer) Breakdown(totals []core.CategoryTotal) {
	if len(totals) == 0 {
		p.Warning("No expenses recorded yet.")
		return
	}
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Category, core.FormatAmount(t.Total)})
	}
	fmt.Fprintln(p.w, newTable([]string{"Category", "Total"}, rows, 1))
}

// TransactionTable renders txs with TransactionHeaders.
func TransactionTable(txs []core.Transaction) string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Date,
			t.Category,
			core.FormatAmount(t.Amount),
			t.Note,
		})
	}
	return newTable(TransactionHeaders, rows, 3).String()
}

// newTable right-aligns the amount column at index amountCol.
func newTable(headers []string, rows [][]string, amountCol int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == amountCol:
				return amountStyle
			default:
				return cellStyle
			}
		})
}
