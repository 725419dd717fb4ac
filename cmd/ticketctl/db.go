package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	repo "github.com/monicap360/move-around-tms/internal/repository"
	"github.com/monicap360/move-around-tms/internal/server"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.open(cmd, true)
			if err != nil {
				return err
			}
			defer db.Close(c.logger)
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func (c *cli) dbhealthCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.open(cmd, false)
			if err != nil {
				return err
			}
			defer db.Close(c.logger)
			if err := server.PingDB(cmd.Context(), db, c.logger, timeout); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DB health: OK")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "ping timeout")
	return cmd
}

func (c *cli) open(cmd *cobra.Command, migrate bool) (*repo.DB, error) {
	if c.cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DB_URL is required (or pass --inmem)")
	}
	return server.ConnectDB(cmd.Context(), c.cfg.Database, migrate || c.inmem, c.logger)
}
