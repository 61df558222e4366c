package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/hydrospark/hydrodash/internal/charges"
	"github.com/hydrospark/hydrodash/internal/hydro"
	"github.com/hydrospark/hydrodash/internal/view"
)

func newChargesCmd(root *rootOptions) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "charges",
		Short: "List per-customer charges and bill statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred := root.credential()
			if !cred.IsAdmin() {
				return errors.New("charges require the admin or billing role")
			}
			ctx := cmd.Context()
			list, err := root.client(cmd.ErrOrStderr()).AdminCharges(ctx, cred)
			if err != nil {
				return fmt.Errorf("loading charges: %s", hydro.Message(err, "request failed"))
			}
			printCharges(cmd.OutOrStdout(), charges.Filter(list, search), len(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by customer name, email or id")
	return cmd
}

func printCharges(w io.Writer, list []hydro.ChargeSummary, total int) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No customers match")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCUSTOMER\tBILLS\tTOTAL\tSTATUS")
	for _, c := range list {
		badges := lo.Map(charges.Badges(c.StatusCounts), func(b charges.Badge, _ int) string {
			return fmt.Sprintf("%d %s", b.Count, b.Status)
		})
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			c.CustomerID,
			c.CustomerName,
			c.BillCount,
			view.FormatMoney(c.TotalAmount.Float64()),
			strings.Join(badges, ", "),
		)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%s of %s customers\n", view.FormatCount(len(list)), view.FormatCount(total))
}
