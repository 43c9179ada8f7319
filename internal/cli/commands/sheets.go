package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (r *runner) sheetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets mirror",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Overwrite the mirror sheet with every expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := r.environment(ctx)
			if err != nil {
				return err
			}
			if env.Sheet == nil {
				return fmt.Errorf("google sheets is not configured")
			}
			sheet, err := env.Sheet(ctx)
			if err != nil {
				return err
			}
			txs, err := env.Transactions.List(ctx)
			if err != nil {
				return err
			}
			if err := sheet.ReplaceAll(ctx, txs); err != nil {
				return fmt.Errorf("push to sheet: %w", err)
			}
			r.out.Success("Pushed %d expenses to Google Sheets.", len(txs))
			return nil
		},
	})
	return cmd
}
