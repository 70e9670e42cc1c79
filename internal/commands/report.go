package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"despesas/internal/core"
	"despesas/internal/report"
)

func newReportCommand(open Opener) *cobra.Command {
	var categoria string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <card> <year> <month>",
		Short: "Print the monthly report of a card",
		Long: "Print the line items, top categories, yearly trend and total of one card and month.\n" +
			"The month may be a number (3) or a name (Março).",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueryArgs(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			q.Category = report.Filter(categoria)

			return withRuntime(cmd.Context(), open, false, func(rt *Runtime) error {
				res, err := rt.service().Query(cmd.Context(), q)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				return printReport(cmd.OutOrStdout(), res)
			})
		},
	}

	cmd.Flags().StringVar(&categoria, "categoria", report.AllCategories, "restrict table, trend and total to one category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func newMonthsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "months <card> <year>",
		Short: "List the months of a year that have records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := core.ParseCard(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			year, err := parseYear(args[1])
			if err != nil {
				return err
			}

			return withRuntime(cmd.Context(), open, false, func(rt *Runtime) error {
				months, err := rt.service().Months(cmd.Context(), card, year)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, m := range months {
					fmt.Fprintf(out, "%2d  %s\n", m.Mes, m.Nome)
				}
				return nil
			})
		},
	}
}

func newYearsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the selectable years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, y := range core.AvailableYears(time.Now()) {
				fmt.Fprintln(cmd.OutOrStdout(), y)
			}
			return nil
		},
	}
}

func parseQueryArgs(cardArg, yearArg, monthArg string) (report.Query, error) {
	card, err := core.ParseCard(cardArg)
	if err != nil {
		return report.Query{}, fmt.Errorf("%w: %q", err, cardArg)
	}
	year, err := parseYear(yearArg)
	if err != nil {
		return report.Query{}, err
	}
	month, err := core.ParseMonthParam(monthArg)
	if err != nil {
		return report.Query{}, fmt.Errorf("%w: %q", err, monthArg)
	}
	return report.Query{Card: card, Period: core.Period{Year: year, Month: month}}, nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidYear, s)
	}
	return year, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, res *report.Result) error {
	fmt.Fprintf(w, "%s, %s (categoria: %s)\n\n", res.Card, res.Period.Label(), res.Filter)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DESPESA\tCATEGORIA\tVALOR")
	for _, item := range res.Table {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Despesa, item.Categoria, item.ValorFormatado)
	}
	fmt.Fprintf(tw, "\tTOTAL\t%s\n", res.TotalFormatado)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.PieTop) > 0 {
		fmt.Fprintln(w, "\nTop categorias:")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, ct := range res.PieTop {
			fmt.Fprintf(tw, "  %s\t%s\n", ct.Categoria, core.FormatBRL(ct.Valor))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(res.Trend) > 0 {
		fmt.Fprintf(w, "\nTendência %d:\n", res.Period.Year)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, p := range res.Trend {
			fmt.Fprintf(tw, "  %s\t%s\n", p.Label, core.FormatBRL(p.Valor))
		}
		return tw.Flush()
	}
	return nil
}
