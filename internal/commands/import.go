package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"despesas/internal/core"
	"despesas/internal/services"
)

func newImportCommand(open Opener) *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "import <card> <file.csv>",
		Short: "Import a despesa,categoria,valor,mes,ano CSV for a card",
		Long: "Append the records of a CSV export to the configured store, or with --publish\n" +
			"queue them for despesas-worker.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := core.ParseCard(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[1], err)
			}
			defer f.Close()

			return withRuntime(cmd.Context(), open, publish, func(rt *Runtime) error {
				svc := services.NewImportService(rt.Store, rt.Publisher)
				res, err := svc.ImportCSV(cmd.Context(), card, filepath.Base(args[1]), f, publish)
				if err != nil {
					return err
				}
				if res.Published {
					fmt.Fprintf(cmd.OutOrStdout(), "queued %d records for %s in %d batches\n", res.Parsed, card, res.Batches)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "imported %d records for %s\n", res.Written, card)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "queue the records on AMQP instead of writing them directly")

	return cmd
}
