// Package cli defines the library command line: the HTTP server plus the
// operator commands that share its configuration.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entrypoint"
	"github.com/mrlokans/library/internal/logging"
)

// Deps lets tests replace configuration, logging and terminal input.
type Deps struct {
	LoadConfig func() *config.Config
	NewLogger  func(config.Log) *logrus.Logger
	Serve      func(cfg *config.Config, version string) error
	Stdin      io.Reader
}

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.NewConfig,
		NewLogger:  logging.New,
		Serve:      entrypoint.Run,
	}
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, defaultDeps())
}

func newRootCommand(version string, deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Library lending service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Serve(deps.LoadConfig(), version)
		},
	}

	root.AddCommand(
		newServeCommand(version, deps),
		newSeedCommand(deps),
		newCreateLibrarianCommand(deps),
		newResetPasswordCommand(deps),
		newReconcileCommand(deps),
	)
	return root
}

func newServeCommand(version string, deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Serve(deps.LoadConfig(), version)
		},
	}
}

// withApp opens the application for a one-shot command and closes it after.
func withApp(ctx context.Context, deps Deps, fn func(*entrypoint.App) error) error {
	cfg := deps.LoadConfig()
	app, err := entrypoint.NewApp(ctx, cfg, deps.NewLogger(cfg.Log))
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func newSeedCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin librarian and sample books if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), deps, func(app *entrypoint.App) error {
				if err := app.Seed(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Seed complete")
				return nil
			})
		},
	}
}

func newReconcileCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Rewrite book statuses from open borrow records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), deps, func(app *entrypoint.App) error {
				fixed, err := app.Ledger.ReconcileBookStatuses(cmd.Context())
				app.Audit.LogMaintenance("reconcile_book_status", fmt.Sprintf("%d book statuses corrected", fixed), err)
				if err != nil {
					return fmt.Errorf("reconcile book statuses: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Corrected %d book statuses\n", fixed)
				return nil
			})
		},
	}
}
