package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/monicap360/move-around-tms/internal/app"
	"github.com/monicap360/move-around-tms/internal/common"
)

// cli carries settings shared by every subcommand.
type cli struct {
	cfg      *common.Config
	logger   *slog.Logger
	inmem    bool
	logLevel string
}

func newRootCommand() *cobra.Command {
	c := &cli{cfg: common.LoadConfig()}

	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Operate the ticket ingestion pipeline from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&c.inmem, "inmem", false, "use an in-memory SQLite database")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", c.cfg.LogLevel, "log level: debug, info, warn, error")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		c.logger = app.NewLogger(os.Stderr, c.logLevel, false)
		slog.SetDefault(c.logger)
		if c.inmem {
			c.cfg.Database.Driver = "sqlite"
			c.cfg.Database.DSN = ":memory:"
		}
		return nil
	}

	root.AddCommand(
		c.ocrCommand(),
		c.parseCommand(),
		c.validateCommand(),
		c.scoreCommand(),
		c.exportCommand(),
		c.ingestCommand(),
		c.batchCommand(),
		c.migrateCommand(),
		c.dbhealthCommand(),
	)
	return root
}

// build opens the database for commands that need storage. In-memory runs always migrate.
func (c *cli) build(ctx context.Context, opts ...app.Option) (*app.App, error) {
	if c.cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DB_URL is required (or pass --inmem)")
	}
	if c.inmem {
		opts = append(opts, app.WithMigrate())
	}
	return app.Build(ctx, c.cfg, c.logger, opts...)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDay parses a YYYY-MM-DD flag value; empty means unset.
func parseDay(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date format, use YYYY-MM-DD: %w", flag, err)
	}
	return &t, nil
}
