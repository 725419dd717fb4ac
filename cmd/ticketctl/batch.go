package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/app"
)

func (c *cli) ingestCommand() *cobra.Command {
	var (
		org     string
		hidden  bool
		noScore bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Submit every supported file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if org != "" {
				c.cfg.Ingest.OrganizationID = org
			}
			opts := []app.Option{}
			if noScore {
				opts = append(opts, app.WithDispatch(app.DispatchNone))
			}
			a, err := c.build(cmd.Context(), opts...)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			results, stats, err := a.Ingestor.IngestDirectory(cmd.Context(), args[0], !hidden)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"stats": stats, "results": results})
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id stamped on created records")
	cmd.Flags().BoolVar(&hidden, "include-hidden", false, "also walk dot files and directories")
	cmd.Flags().BoolVar(&noScore, "no-score", false, "skip background validation and scoring")
	return cmd
}

// batchCommand ingests a folder, waits for scoring and writes the review workbook in one run.
func (c *cli) batchCommand() *cobra.Command {
	var dir, out, fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Ingest a directory of tickets and export the review queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				return fmt.Errorf("--dir is required")
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(dir), "tickets.xlsx")
			}
			from, err := parseDay("from", fromStr)
			if err != nil {
				return err
			}
			to, err := parseDay("to", toStr)
			if err != nil {
				return err
			}
			// batch runs score in-process so the export sees validation results
			c.cfg.Scoring.Mode = "inline"
			c.cfg.Scoring.RemoteURL = ""

			a, err := c.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			c.logger.Info("starting ingestion", "dir", dir)
			results, stats, err := a.Ingestor.IngestDirectory(cmd.Context(), dir, true)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Err != "" {
					c.logger.Warn("file failed", "path", r.SourcePath, "error", r.Err)
				}
			}
			c.logger.Info("ingestion complete",
				"matched", stats.Matched,
				"succeeded", stats.Succeeded,
				"deduplicated", stats.Deduplicated,
				"failed", stats.Failed)

			a.DrainScoring(cmd.Context())
			return writeExport(cmd, a, constants.StatusPendingReview, from, to, out)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to process tickets from (required)")
	cmd.Flags().StringVar(&out, "out", "", "output XLSX file path (defaults to the parent of --dir)")
	cmd.Flags().StringVar(&fromStr, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "to date YYYY-MM-DD (inclusive)")
	return cmd
}
