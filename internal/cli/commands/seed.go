package commands

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"waist/internal/core"
)

var (
	demoCategories = []string{"Food", "Transport", "Bills", "Entertainment", "Groceries", "Health", "Education"}
	demoNotes      = []string{
		"Lunch", "Train ticket", "Electricity bill", "Movie night", "Weekly shopping",
		"Gym membership", "Online course", "Coffee", "Doctor visit", "Gift",
	}
)

// DemoTransactions generates n plausible expenses dated within the 90 days
// before today.
func DemoTransactions(rng *rand.Rand, today time.Time, n int) []core.Transaction {
	txs := make([]core.Transaction, 0, n)
	for range n {
		cents := 500 + rng.Int64N(19501)
		txs = append(txs, core.Transaction{
			Date:     today.AddDate(0, 0, -rng.IntN(91)).Format(core.DateLayout),
			Category: demoCategories[rng.IntN(len(demoCategories))],
			Amount:   decimal.New(cents, -2),
			Note:     demoNotes[rng.IntN(len(demoNotes))],
		})
	}
	return txs
}

func (r *runner) seedCommand() *cobra.Command {
	var (
		count int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert random demo expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.environment(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = uint64(env.Now().UnixNano())
			}

			rng := rand.New(rand.NewPCG(seed, seed>>1|1))
			for _, t := range DemoTransactions(rng, env.Now(), count) {
				if _, err := env.Transactions.Create(cmd.Context(), t); err != nil {
					return err
				}
			}
			r.out.Success("Inserted %d demo expenses.", count)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 100, "Number of expenses to insert")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default: current time)")
	return cmd
}
