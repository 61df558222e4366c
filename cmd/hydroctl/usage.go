package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/usage"
	"github.com/hydrospark/hydrodash/internal/view"
)

type usageOptions struct {
	Days     int   `validate:"oneof=7 30 90 365"`
	Customer int64 `validate:"gte=0"`
}

func newUsageCmd(root *rootOptions) *cobra.Command {
	opts := &usageOptions{}
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Print usage statistics and the monthly series for a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Struct(opts); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			cred := root.credential()
			if opts.Customer > 0 && !cred.IsAdmin() {
				return errors.New("--customer requires the admin or billing role")
			}
			ctx := cmd.Context()

			window := usage.Window(opts.Days)
			rng := window.Range(clock())
			records, err := root.client(cmd.ErrOrStderr()).Usage(ctx, cred, hydro.UsageQuery{Range: rng, CustomerID: opts.Customer})
			if err != nil {
				return fmt.Errorf("loading usage: %s", hydro.Message(err, "request failed"))
			}
			printUsage(cmd.OutOrStdout(), window, rng, records)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Days, "days", int(usage.DefaultWindow), "window in days (7, 30, 90 or 365)")
	cmd.Flags().Int64Var(&opts.Customer, "customer", 0, "customer id (admin only)")
	return cmd
}

func printUsage(w io.Writer, window usage.Window, rng hydro.DateRange, records []hydro.UsageRecord) {
	fmt.Fprintf(w, "%s: %s to %s\n", window.Label(), rng.Start, rng.End)
	if len(records) == 0 {
		fmt.Fprintln(w, "No usage data for this period")
		return
	}

	stats := usage.SummaryStats(records)
	fmt.Fprintf(w, "Records:  %s\n", view.FormatCount(stats.Count))
	fmt.Fprintf(w, "Total:    %s CCF\n", view.FormatCCF(stats.Total))
	fmt.Fprintf(w, "Average:  %s CCF/day\n", view.FormatCCF(stats.Average))
	if stats.Peak != nil {
		fmt.Fprintf(w, "Peak:     %s CCF on %s\n", view.FormatCCF(stats.Peak.Usage()), stats.Peak.UsageDate)
	}

	fmt.Fprintln(w, "Monthly:")
	for _, m := range usage.MonthlySeries(records) {
		fmt.Fprintf(w, "  %s  %12s\n", m.Month, view.FormatCCF(m.Total))
	}
}
