package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/app"
	"github.com/monicap360/move-around-tms/internal/confidence"
)

func (c *cli) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [ticket-id]",
		Short: "Run the validation rules against a stored ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid ticket id (must be UUID): %w", err)
			}
			a, err := c.build(cmd.Context(), app.WithoutOCR(), app.WithDispatch(app.DispatchNone))
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			summary, err := a.Validation.ValidateTicket(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
}

func (c *cli) scoreCommand() *cobra.Command {
	var (
		req   confidence.Request
		org   string
		drv   string
		site  string
		store bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a field value against historical baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if drv != "" {
				req.DriverID = &drv
			}
			if site != "" {
				req.SiteID = &site
			}
			a, err := c.build(cmd.Context(), app.WithoutOCR(), app.WithDispatch(app.DispatchNone))
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			score, err := a.Scorer.ScoreForVertical(cmd.Context(), org, req)
			if err != nil {
				return err
			}
			if store && a.ScoreWriter != nil {
				if err := a.ScoreWriter.Save(cmd.Context(), score); err != nil {
					return err
				}
			}
			return printJSON(cmd, map[string]any{
				"score":     score,
				"isAnomaly": confidence.IsAnomaly(score.Score),
				"severity":  confidence.AnomalySeverity(score.Score),
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.EntityType, "entity-type", "ticket", "entity type")
	f.StringVar(&req.EntityID, "entity-id", "", "entity id")
	f.StringVar(&req.FieldName, "field", "", "field name: quantity, total_pay, waiting_minutes, load_weight")
	f.Float64Var(&req.ActualValue, "value", 0, "observed value")
	f.IntVar(&req.WindowDays, "window", 0, "lookback window in days (0 uses the organization vertical)")
	f.StringVar(&drv, "driver", "", "driver id for the driver baseline")
	f.StringVar(&site, "site", "", "site id for the site baseline")
	f.StringVar(&org, "org", "", "organization id")
	f.BoolVar(&store, "save", false, "persist the score")
	_ = cmd.MarkFlagRequired("entity-id")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func (c *cli) exportCommand() *cobra.Command {
	var out, status, fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the review queue to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDay("from", fromStr)
			if err != nil {
				return err
			}
			to, err := parseDay("to", toStr)
			if err != nil {
				return err
			}
			a, err := c.build(cmd.Context(), app.WithoutOCR(), app.WithDispatch(app.DispatchNone))
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())
			return writeExport(cmd, a, constants.ReviewStatus(status), from, to, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "tickets.xlsx", "output XLSX file path")
	cmd.Flags().StringVar(&status, "status", string(constants.StatusPendingReview), "ticket status to export")
	cmd.Flags().StringVar(&fromStr, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "to date YYYY-MM-DD (inclusive)")
	return cmd
}

func writeExport(cmd *cobra.Command, a *app.App, status constants.ReviewStatus, from, to *time.Time, out string) error {
	data, err := a.Exporter.ExportReviewXLSX(cmd.Context(), status, from, to)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
	return nil
}
