package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"waist/internal/core"
	"waist/internal/storage"
)

var (
	mainMenu = []string{
		"Add a new expense",
		"View expenses",
		"Edit an expense",
		"Delete an expense",
		"View analytics",
		"Export to CSV",
		"Exit",
	}

	// filterMenu follows the order of storage.FilterFields.
	filterMenu = []struct{ label, prompt string }{
		{"Filter by Category", "Enter category: "},
		{"Filter by Date (YYYY-MM-DD)", "Enter date (YYYY-MM-DD): "},
		{"Filter by Month (YYYY-MM)", "Enter month (YYYY-MM): "},
		{"Filter by Minimum Amount", "Enter minimum amount: "},
		{"Filter by Maximum Amount", "Enter maximum amount: "},
	}

	// analyticsMenu follows the order of reports.
	analyticsMenu = []string{
		"Total Spent Today",
		"Total Spent This Month",
		"Total by Category",
		"Highest Spending Category",
		"Average Daily Spend (This Month)",
		"Spending by Category",
	}
)

func (r *runner) menuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			err = r.runMenu(cmd.Context(), env)
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.w)
				r.out.Muted("Goodbye!")
				return nil
			}
			return err
		},
	}
}

func (r *runner) runMenu(ctx context.Context, env *Env) error {
	for {
		r.options("WAIST - Main Menu", mainMenu)
		choice, err := r.prompt(fmt.Sprintf("Choose an option (1-%d): ", len(mainMenu)))
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = r.menuAdd(ctx, env)
		case "2":
			err = r.menuView(ctx, env)
		case "3":
			err = r.menuEdit(ctx, env)
		case "4":
			err = r.menuDelete(ctx, env)
		case "5":
			err = r.menuAnalytics(ctx, env)
		case "6":
			err = r.menuExport(ctx, env)
		case "7":
			r.out.Muted("Goodbye!")
			return nil
		default:
			r.out.Error("Invalid choice! Please try again.")
		}
		if err := r.recoverable(err); err != nil {
			return err
		}
	}
}

// recoverable prints err and swallows it unless input has run out.
func (r *runner) recoverable(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	r.out.Error("%v", err)
	return nil
}

func (r *runner) options(title string, items []string) {
	r.out.Section(title)
	for i, item := range items {
		fmt.Fprintf(r.w, "%d. %s\n", i+1, item)
	}
}

// ask re-prompts until valid accepts the input.
func (r *runner) ask(label, invalid string, valid func(string) error) (string, error) {
	for {
		s, err := r.prompt(label)
		if err != nil {
			return "", err
		}
		if valid(s) == nil {
			return s, nil
		}
		r.out.Error("%s", invalid)
	}
}

func validDate(s string) error {
	_, err := core.ValidateDate(s)
	return err
}

func validCategory(s string) error {
	_, err := core.ValidateCategory(s)
	return err
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("blank")
	}
	return nil
}

func validAmount(s string) error {
	_, err := core.ParseAmount(s)
	return err
}

// orKeep lets a blank answer through so the current value is kept.
func orKeep(valid func(string) error) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		return valid(s)
	}
}

func (r *runner) menuAdd(ctx context.Context, env *Env) error {
	r.out.Section("Add a New Expense")

	date, err := r.ask("Date (YYYY-MM-DD): ", "Invalid date. Please enter a valid date (e.g., 2025-11-12).", validDate)
	if err != nil {
		return err
	}
	category, err := r.ask("Category: ", "Category cannot be empty.", validCategory)
	if err != nil {
		return err
	}
	amount, err := r.ask("Amount: ", "Amount must be a number.", validAmount)
	if err != nil {
		return err
	}
	note, err := r.prompt("Note: ")
	if err != nil {
		return err
	}

	t, err := buildTransaction(date, amount, note)
	if err != nil {
		return err
	}
	t.Category, _ = core.ValidateCategory(category)
	if _, err := env.Transactions.Create(ctx, t); err != nil {
		return err
	}
	r.out.Success("Expense added successfully!")
	return nil
}

func (r *runner) menuView(ctx context.Context, env *Env) error {
	r.options("View Expenses", []string{"View All", "Filters", "Back"})
	choice, err := r.prompt("Choose an option (1-3): ")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		txs, err := env.Transactions.List(ctx)
		if err != nil {
			return err
		}
		r.out.Transactions(txs)
	case "2":
		return r.menuFilter(ctx, env)
	case "3":
	default:
		r.out.Error("Invalid choice!")
	}
	return nil
}

func (r *runner) menuFilter(ctx context.Context, env *Env) error {
	items := make([]string, 0, len(filterMenu)+1)
	for _, f := range filterMenu {
		items = append(items, f.label)
	}
	items = append(items, "Back")

	for {
		r.options("Filter Expenses", items)
		choice, err := r.prompt(fmt.Sprintf("Choose an option (1-%d): ", len(items)))
		if err != nil {
			return err
		}

		if choice == fmt.Sprint(len(items)) {
			return nil
		}
		i, ok := menuIndex(choice, len(filterMenu))
		if !ok {
			r.out.Error("Invalid choice!")
			continue
		}

		value, err := r.prompt(filterMenu[i].prompt)
		if err != nil {
			return err
		}
		f, err := storage.ParseFilter(storage.FilterFields[i], value)
		if err != nil {
			r.out.Error("Invalid %s: %v", storage.FilterFields[i], err)
			continue
		}
		txs, err := env.Transactions.Filter(ctx, f)
		if err != nil {
			r.out.Error("%v", err)
			continue
		}
		r.out.Transactions(txs)
	}
}

// menuIndex maps a 1-based choice to an index below n.
func menuIndex(choice string, n int) (int, bool) {
	i, err := strconv.Atoi(choice)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// pickExpense shows every expense and asks for an ID. A nil result with a
// nil error means the user went back.
func (r *runner) pickExpense(ctx context.Context, env *Env, verb string) (*core.Transaction, error) {
	txs, err := env.Transactions.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		r.out.Error("No expenses found to %s.", verb)
		return nil, nil
	}
	r.out.Transactions(txs)

	r.out.Info("Enter the ID of the expense to %s, or type 'b' to go back.", verb)
	answer, err := r.prompt("Your choice: ")
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(answer, "b") {
		return nil, nil
	}
	id, err := parseID(answer)
	if err != nil {
		r.out.Error("Invalid ID. Must be a number or 'b'.")
		return nil, nil
	}

	t, err := env.Transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		r.out.Error("Expense ID not found.")
	}
	return t, nil
}

func (r *runner) menuEdit(ctx context.Context, env *Env) error {
	r.out.Section("Edit Expense")
	current, err := r.pickExpense(ctx, env, "edit")
	if err != nil || current == nil {
		return err
	}

	r.out.Muted("Press ENTER to keep the existing value.")
	date, err := r.ask(fmt.Sprintf("New date (current: %s): ", current.Date), "Invalid date. Please enter a valid date (e.g., 2025-11-12).", orKeep(validDate))
	if err != nil {
		return err
	}
	category, err := r.prompt(fmt.Sprintf("New category (current: %s): ", current.Category))
	if err != nil {
		return err
	}
	amount, err := r.ask(fmt.Sprintf("New amount (current: %s): ", core.FormatAmount(current.Amount)), "Amount must be a number.", orKeep(validAmount))
	if err != nil {
		return err
	}
	note, err := r.prompt(fmt.Sprintf("New note (current: %s): ", current.Note))
	if err != nil {
		return err
	}

	next := *current
	if date != "" {
		next.Date = date
	}
	if category != "" {
		next.Category = category
	}
	if amount != "" {
		next.Amount, _ = core.ParseAmount(amount)
	}
	if note != "" {
		next.Note = note
	}

	found, err := env.Transactions.Update(ctx, next)
	if err != nil {
		return err
	}
	if !found {
		r.out.Error("Expense ID not found.")
		return nil
	}
	r.out.Success("Expense updated successfully!")
	return nil
}

func (r *runner) menuDelete(ctx context.Context, env *Env) error {
	r.out.Section("Delete Expense")
	t, err := r.pickExpense(ctx, env, "delete")
	if err != nil || t == nil {
		return err
	}
	return r.deleteExpense(ctx, env, t.ID, false)
}

func (r *runner) menuAnalytics(ctx context.Context, env *Env) error {
	items := append(append([]string{}, analyticsMenu...), "Back")

	for {
		r.options("Analytics", items)
		choice, err := r.prompt(fmt.Sprintf("Choose an option (1-%d): ", len(items)))
		if err != nil {
			return err
		}
		if choice == fmt.Sprint(len(items)) {
			return nil
		}
		i, ok := menuIndex(choice, len(reports))
		if !ok {
			r.out.Error("Invalid choice!")
			continue
		}

		var args []string
		if reports[i].args != nil {
			category, err := r.prompt("Enter category: ")
			if err != nil {
				return err
			}
			args = []string{category}
		}
		if err := r.recoverable(reports[i].run(ctx, r, env, args)); err != nil {
			return err
		}
	}
}

func (r *runner) menuExport(ctx context.Context, env *Env) error {
	r.out.Section("Export Expenses to CSV")
	n, err := env.Transactions.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		r.out.Warning("No expenses to export.")
		return nil
	}

	name, err := r.ask("Enter CSV filename (e.g., expenses.csv): ", "Filename cannot be empty.", notBlank)
	if err != nil {
		return err
	}
	return r.exportTo(ctx, env, name)
}
