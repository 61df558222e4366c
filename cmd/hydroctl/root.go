package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/hydrospark/hydrodash/internal/hydro"
)

const defaultAPI = "http://localhost:5001/api"

// clock is replaced in tests.
var clock = time.Now

var validate = validator.New()

type rootOptions struct {
	API     string        `validate:"required,url"`
	Token   string        `validate:"required"`
	Role    string        `validate:"oneof=admin billing customer"`
	Timeout time.Duration `validate:"gt=0"`
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hydroctl",
		Short: "Operate the water billing backend from the command line",
		Long: `hydroctl runs the admin actions of the dashboard (import, anomaly
detection, historical bills) and prints usage and charge summaries.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Role = strings.ToLower(strings.TrimSpace(opts.Role))
			if err := validate.Struct(opts); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.API, "api", envOr("BACKEND_URL", defaultAPI), "backend API base URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("HYDRO_TOKEN"), "backend access token")
	cmd.PersistentFlags().StringVar(&opts.Role, "role", envOr("HYDRO_ROLE", string(hydro.RoleAdmin)), "role attached to the token (admin, billing or customer)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 15*time.Minute, "request timeout")

	cmd.AddCommand(
		newImportCmd(opts),
		newDetectCmd(opts),
		newBillsCmd(opts),
		newUsageCmd(opts),
		newChargesCmd(opts),
	)
	return cmd
}

func (o *rootOptions) credential() hydro.Credential {
	return hydro.Credential{Token: o.Token, Role: hydro.Role(o.Role)}
}

func (o *rootOptions) client(stderr io.Writer) *hydro.Client {
	return hydro.NewClient(o.API,
		hydro.WithHTTPClient(&http.Client{Timeout: o.Timeout}),
		hydro.WithLogger(newLogger(stderr)),
	)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
