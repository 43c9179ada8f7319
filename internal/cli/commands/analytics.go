package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"waist/internal/core"
)

// report is one analytics figure shared by the subcommands and the menu.
type report struct {
	use   string
	short string
	run   func(ctx context.Context, r *runner, env *Env, args []string) error
	args  cobra.PositionalArgs
}

var reports = []report{
	{
		use:   "today",
		short: "Total spent today",
		run: func(ctx context.Context, r *runner, env *Env, _ []string) error {
			total, err := env.Transactions.TotalToday(ctx)
			if err != nil {
				return err
			}
			r.out.Figure("Total Spent Today", core.FormatAmount(total))
			return nil
		},
	},
	{
		use:   "month",
		short: "Total spent this month",
		run: func(ctx context.Context, r *runner, env *Env, _ []string) error {
			total, err := env.Transactions.TotalThisMonth(ctx)
			if err != nil {
				return err
			}
			r.out.Figure("Total Spent This Month", core.FormatAmount(total))
			return nil
		},
	},
	{
		use:   "category <name>",
		short: "Total spent in one category",
		args:  cobra.ExactArgs(1),
		run: func(ctx context.Context, r *runner, env *Env, args []string) error {
			category, err := core.ValidateCategory(args[0])
			if err != nil {
				return err
			}
			total, err := env.Transactions.TotalByCategory(ctx, category)
			if err != nil {
				return err
			}
			r.out.Figure(fmt.Sprintf("Total Spent in '%s'", category), core.FormatAmount(total))
			return nil
		},
	},
	{
		use:   "top",
		short: "Category with the highest total",
		run: func(ctx context.Context, r *runner, env *Env, _ []string) error {
			top, err := env.Transactions.TopCategory(ctx)
			if err != nil {
				return err
			}
			if top == nil {
				r.out.Warning("No expenses recorded yet.")
				return nil
			}
			r.out.Figure(fmt.Sprintf("Highest Spending Category: %s", top.Category), core.FormatAmount(top.Total))
			return nil
		},
	},
	{
		use:   "average",
		short: "Average daily spend over the current month",
		run: func(ctx context.Context, r *runner, env *Env, _ []string) error {
			avg, err := env.Transactions.AverageDailyThisMonth(ctx)
			if err != nil {
				return err
			}
			r.out.Figure("Average Daily Spend (This Month)", core.FormatAmount(avg))
			return nil
		},
	},
	{
		use:   "breakdown",
		short: "Totals per category, largest first",
		run: func(ctx context.Context, r *runner, env *Env, _ []string) error {
			totals, err := env.Transactions.CategoryBreakdown(ctx)
			if err != nil {
				return err
			}
			r.out.Section("Spending by Category")
			r.out.Breakdown(totals)
			return nil
		},
	},
}

func (r *runner) analyticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analytics",
		Aliases: []string{"stats"},
		Short:   "Spending analytics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.summary(cmd.Context())
		},
	}

	for _, rep := range reports {
		args := rep.args
		if args == nil {
			args = cobra.NoArgs
		}
		cmd.AddCommand(&cobra.Command{
			Use:   rep.use,
			Short: rep.short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := r.environment(cmd.Context())
				if err != nil {
					return err
				}
				return rep.run(cmd.Context(), r, env, args)
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Every figure at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.summary(cmd.Context())
		},
	})
	return cmd
}

func (r *runner) summary(ctx context.Context) error {
	env, err := r.environment(ctx)
	if err != nil {
		return err
	}
	s, err := env.Analytics.Summary(ctx)
	if err != nil {
		return err
	}

	r.out.Section("Summary")
	r.out.Figure("Total Spent Today", core.FormatAmount(s.TotalToday))
	r.out.Figure("Total Spent This Month", core.FormatAmount(s.TotalMonth))
	r.out.Figure("Average Daily Spend (This Month)", core.FormatAmount(s.AverageDaily))
	if s.Top != nil {
		r.out.Figure(fmt.Sprintf("Highest Spending Category: %s", s.Top.Category), core.FormatAmount(s.Top.Total))
	}
	r.out.Muted("%d expenses recorded", s.Count)
	r.out.Breakdown(s.Breakdown)
	return nil
}
