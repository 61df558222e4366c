package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hydrospark/hydrodash/internal/admin"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a usage data file (.xlsx, .xls or .csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploading %s (%s)\n", filepath.Base(path), humanize.IBytes(uint64(info.Size())))

			up := &admin.Upload{Filename: filepath.Base(path), Size: info.Size(), Content: f}
			return runAction(cmd, opts, admin.ActionImport, up)
		},
	}
}

func newDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Run anomaly detection across all customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, admin.ActionDetect, nil)
		},
	}
}

func newBillsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bills",
		Short: "Generate historical bills for all customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, opts, admin.ActionBills, nil)
		},
	}
}

func runAction(cmd *cobra.Command, opts *rootOptions, action admin.Action, up *admin.Upload) error {
	cred := opts.credential()
	if !cred.IsAdmin() {
		return errors.New("admin actions require the admin or billing role")
	}
	ctx := cmd.Context()

	client := opts.client(cmd.ErrOrStderr())
	panel := admin.NewPanel(client, nil, newLogger(cmd.ErrOrStderr()))
	outcome := panel.Run(ctx, cred, action, up)
	printOutcome(cmd.OutOrStdout(), outcome)
	if outcome.Failed() {
		return errors.New(outcome.Err)
	}
	return nil
}

func printOutcome(w io.Writer, o admin.Outcome) {
	if o.Failed() {
		return
	}
	if o.Message != "" {
		fmt.Fprintln(w, o.Message)
	}
	for _, line := range o.Details {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if o.ErrorCount == 0 {
		return
	}
	fmt.Fprintf(w, "Errors (%s):\n", humanize.Comma(int64(o.ErrorCount)))
	for _, line := range o.Errors {
		fmt.Fprintf(w, "  - %s\n", line)
	}
	if hidden := o.ErrorCount - len(o.Errors); hidden > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", hidden)
	}
}
