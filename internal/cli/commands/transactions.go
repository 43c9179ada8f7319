package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"waist/internal/core"
	"waist/internal/export"
	"waist/internal/storage"
)

func (r *runner) addCommand() *cobra.Command {
	var (
		date, category, amount, note string
		suggest                      bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new expense",
		Example: `  waist-cli add --amount 12.50 --category Food --note lunch
  waist-cli add --date 2025-01-05 --amount 40 --note "train ticket" --suggest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := r.environment(ctx)
			if err != nil {
				return err
			}

			if strings.TrimSpace(date) == "" {
				date = env.Now().Format(core.DateLayout)
			}
			t, err := buildTransaction(date, amount, note)
			if err != nil {
				return err
			}

			if strings.TrimSpace(category) == "" && suggest {
				category = env.Advisor.SuggestCategory(ctx, t.Note, t.Amount, t.Date, "")
				r.out.Info("Suggested category: %s", category)
			}
			if t.Category, err = core.ValidateCategory(category); err != nil {
				return errors.New("category cannot be empty (pass --category or --suggest)")
			}

			id, err := env.Transactions.Create(ctx, t)
			if err != nil {
				return err
			}
			r.out.Success("Expense added successfully! (ID %d)", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category, e.g. Food")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount spent (required)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "Optional note")
	cmd.Flags().BoolVar(&suggest, "suggest", false, "Ask the language model for a category when none is given")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// buildTransaction validates the CLI inputs that every write shares.
func buildTransaction(date, amount, note string) (core.Transaction, error) {
	d, err := core.ValidateDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, e.g. 2025-11-12", date)
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q: must be a number", amount)
	}
	return core.Transaction{Date: d, Amount: a, Note: strings.TrimSpace(note)}, nil
}

func (r *runner) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every expense, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := env.Transactions.List(cmd.Context())
			if err != nil {
				return err
			}
			r.out.Transactions(txs)
			return nil
		},
	}
}

func (r *runner) filterCommand() *cobra.Command {
	values := make(map[string]*string, len(storage.FilterFields))

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show expenses matching one criterion",
		Long: `Show expenses matching exactly one of the filters below.

Category, date and month results are ordered newest first; --min lists the
largest amounts first and --max the smallest first.`,
		Example: `  waist-cli filter --month 2025-03
  waist-cli filter --min 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var set []string
			for _, field := range storage.FilterFields {
				if cmd.Flags().Changed(field) {
					set = append(set, field)
				}
			}
			if len(set) != 1 {
				return errors.New("exactly one of --category, --date, --month, --min or --max is required")
			}

			f, err := storage.ParseFilter(set[0], *values[set[0]])
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", set[0], err)
			}

			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := env.Transactions.Filter(cmd.Context(), f)
			if err != nil {
				return err
			}
			r.out.Transactions(txs)
			return nil
		},
	}

	usage := map[string]string{
		"category": "Exact category",
		"date":     "Exact date (YYYY-MM-DD)",
		"month":    "Month (YYYY-MM)",
		"min":      "Minimum amount",
		"max":      "Maximum amount",
	}
	for _, field := range storage.FilterFields {
		values[field] = cmd.Flags().String(field, "", usage[field])
	}
	return cmd
}

func (r *runner) editCommand() *cobra.Command {
	var date, category, amount, note string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an expense; unset flags keep the current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := r.environment(ctx)
			if err != nil {
				return err
			}

			current, err := env.Transactions.Get(ctx, id)
			if err != nil {
				return err
			}
			if current == nil {
				return fmt.Errorf("expense ID %d not found", id)
			}

			next := *current
			flags := cmd.Flags()
			if flags.Changed("date") {
				if next.Date, err = core.ValidateDate(date); err != nil {
					return fmt.Errorf("invalid date %q: use YYYY-MM-DD", date)
				}
			}
			if flags.Changed("category") {
				if next.Category, err = core.ValidateCategory(category); err != nil {
					return errors.New("category cannot be empty")
				}
			}
			if flags.Changed("amount") {
				if next.Amount, err = core.ParseAmount(amount); err != nil {
					return fmt.Errorf("invalid amount %q: must be a number", amount)
				}
			}
			if flags.Changed("note") {
				next.Note = strings.TrimSpace(note)
			}

			found, err := env.Transactions.Update(ctx, next)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("expense ID %d not found", id)
			}
			r.out.Success("Expense updated successfully!")
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "New amount")
	cmd.Flags().StringVarP(&note, "note", "n", "", "New note")
	return cmd
}

func (r *runner) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			return r.deleteExpense(cmd.Context(), env, id, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (r *runner) deleteExpense(ctx context.Context, env *Env, id int64, skipConfirm bool) error {
	if !skipConfirm {
		ok, err := r.confirm(fmt.Sprintf("Are you sure you want to delete expense ID %d?", id))
		if err != nil {
			return err
		}
		if !ok {
			r.out.Warning("Deletion cancelled.")
			return nil
		}
	}

	found, err := env.Transactions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		r.out.Warning("No expense with ID %d.", id)
		return nil
	}
	r.out.Success("Expense deleted successfully!")
	return nil
}

func (r *runner) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "export <file>",
		Short:   "Export every expense to a CSV file",
		Long:    `Write all expenses to a CSV file with the header ID,Date,Category,Amount,Note. ".csv" is appended when missing.`,
		Example: `  waist-cli export expenses`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			return r.exportTo(cmd.Context(), env, args[0])
		},
	}
}

func (r *runner) exportTo(ctx context.Context, env *Env, name string) error {
	txs, err := env.Transactions.List(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		r.out.Warning("No expenses to export.")
		return nil
	}

	path, err := export.WriteFile(name, txs)
	if err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}
	r.out.Success("Exported successfully to '%s'", path)
	return nil
}
