package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/core"
	"financialchecker/internal/estimate"
)

const (
	selectAll     = "all"
	selectExpense = "expense"
	selectIncome  = "income"
)

type transactionOptions struct {
	Type     string
	Start    string
	End      string
	Category string
	PlotType string
	File     string
	Bins     int
}

var txOpts transactionOptions

var transactionCmd = &cobra.Command{
	Use:   "transaction",
	Short: "Plot the amount distribution of the selected transactions",
	Long: `Print the selection, then write a histogram of the selected amounts.

Selecting "all" prints the selection only.

Example:
  analytics transaction -t income -s 2024-01-01 -f income.png
  analytics transaction -t expense -c Groceries`,
	Run: func(cmd *cobra.Command, args []string) {
		b, closeFn, err := openBuilder(cmd.Context())
		exitOnError(err, "failed to open backend")
		defer closeFn()

		exitOnError(runTransactionReport(cmd.Context(), cmd.OutOrStdout(), b, txOpts), "transaction report failed")
	},
}

func init() {
	f := transactionCmd.Flags()
	f.StringVarP(&txOpts.Type, "type", "t", selectAll, "transaction type: all, expense or income")
	f.StringVarP(&txOpts.Start, "start", "s", "", "first date to include (YYYY-MM-DD)")
	f.StringVarP(&txOpts.End, "end", "e", "", "last date to include (YYYY-MM-DD)")
	f.StringVarP(&txOpts.Category, "category", "c", "", "only this category")
	f.StringVar(&txOpts.PlotType, "plot-type", "dist", "plot type: dist or distribution")
	f.StringVarP(&txOpts.File, "file", "f", "./result.png", "output image path")
	f.IntVar(&txOpts.Bins, "bins", 20, "histogram bins")
}

// normalizeType maps the accepted spellings onto the three selections.
func normalizeType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", selectAll:
		return selectAll, nil
	case selectExpense, "expenses":
		return selectExpense, nil
	case selectIncome:
		return selectIncome, nil
	default:
		return "", fmt.Errorf("%w: %q (want all, expense or income)", core.ErrInvalidType, s)
	}
}

func parseWindow(start, end string) (aggregate.Window, error) {
	var w aggregate.Window
	var err error
	if strings.TrimSpace(start) != "" {
		if w.Start, err = core.ParseDate(start); err != nil {
			return aggregate.Window{}, fmt.Errorf("start: %w", err)
		}
	}
	if strings.TrimSpace(end) != "" {
		if w.End, err = core.ParseDate(end); err != nil {
			return aggregate.Window{}, fmt.Errorf("end: %w", err)
		}
	}
	return w, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func runTransactionReport(ctx context.Context, out io.Writer, src estimate.ViewSource, opts transactionOptions) error {
	typ, err := normalizeType(opts.Type)
	if err != nil {
		return err
	}
	switch opts.PlotType {
	case "", "dist", "distribution":
	default:
		return fmt.Errorf("unknown plot type %q", opts.PlotType)
	}
	win, err := parseWindow(opts.Start, opts.End)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Transaction Type selected -> %s\n", typ)
	fmt.Fprintf(out, "From -> %s\n", orDefault(opts.Start, "first record"))
	fmt.Fprintf(out, "To -> %s\n", orDefault(opts.End, "last record"))
	fmt.Fprintf(out, "Category -> %s\n", orDefault(opts.Category, selectAll))
	fmt.Fprintf(out, "Plot Type -> %s\n", orDefault(opts.PlotType, "dist"))
	fmt.Fprintf(out, "Storing -> %s\n", opts.File)

	if typ == selectAll {
		fmt.Fprintln(out, "No plot visualization is available")
		return nil
	}

	expense, income, err := src.Views(ctx)
	if err != nil {
		return fmt.Errorf("read views: %w", err)
	}
	view := expense
	if typ == selectIncome {
		view = income
	}
	view = view.Filter(win).InCategory(opts.Category)

	values := make([]float64, 0, view.Len())
	for _, a := range view.Amounts() {
		values = append(values, a.InexactFloat64())
	}
	title := "Expense amount distribution"
	if typ == selectIncome {
		title = "Income amount distribution"
	}
	if err := writeHistogram(values, opts.Bins, title, opts.File); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote histogram of %d amounts to %s\n", len(values), opts.File)

	fmt.Fprintf(out, "Total -> %s\n", core.FormatAmount(view.Total()))
	for _, c := range view.ByCategory() {
		fmt.Fprintf(out, "  %s -> %s\n", c.Name, core.FormatAmount(c.Amount))
	}
	return nil
}
