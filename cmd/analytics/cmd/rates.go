package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"financialchecker/internal/estimate"
)

type ratesOptions struct {
	Start      string
	End        string
	Period     string
	Stochastic bool
}

var rtOpts ratesOptions

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Print income and expense rates of change",
	Long: `Print both rates for every period, or only the one given with -p.

With -s only the start bound filters; -e applies when -s is absent.

Example:
  analytics rates -s 2024-01-01
  analytics rates -e 2024-06-30 -p weekly`,
	Run: func(cmd *cobra.Command, args []string) {
		b, closeFn, err := openBuilder(cmd.Context())
		exitOnError(err, "failed to open backend")
		defer closeFn()

		exitOnError(runRatesReport(cmd.Context(), cmd.OutOrStdout(), b, rtOpts), "rates report failed")
	},
}

func init() {
	f := ratesCmd.Flags()
	f.StringVarP(&rtOpts.Start, "start", "s", "", "window start (YYYY-MM-DD)")
	f.StringVarP(&rtOpts.End, "end", "e", "", "window end (YYYY-MM-DD)")
	f.StringVarP(&rtOpts.Period, "period", "p", "", "daily, weekly, monthly or yearly (default all)")
	f.BoolVar(&rtOpts.Stochastic, "stochastic", false, "reserved")
}

func runRatesReport(ctx context.Context, out io.Writer, src estimate.ViewSource, opts ratesOptions) error {
	var only estimate.Period
	if opts.Period != "" {
		p, err := estimate.ParsePeriod(opts.Period)
		if err != nil {
			return err
		}
		only = p
	}
	win, err := parseWindow(opts.Start, opts.End)
	if err != nil {
		return err
	}

	e, err := estimate.New(ctx, src, win.Start, win.End)
	if err != nil {
		return fmt.Errorf("build estimator: %w", err)
	}
	s := e.Summary(opts.Stochastic)

	fmt.Fprintf(out, "Window: %s to %s (%d income, %d expense records)\n",
		orDefault(s.Start.String(), "n/a"), orDefault(s.End.String(), "n/a"), s.IncomeCount, s.ExpenseCount)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tINCOME\tEXPENSE")
	for _, r := range s.Rates {
		if only != "" && r.Period != only {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Period, rateText(r.Income, r.IncomeFinite), rateText(r.Expense, r.ExpenseFinite))
	}
	return tw.Flush()
}

func rateText(v float64, finite bool) string {
	if !finite {
		return "insufficient data"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
