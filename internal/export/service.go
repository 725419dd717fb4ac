package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// TicketSource is the slice of the ticket repository the export needs.
type TicketSource interface {
	ListByStatus(ctx context.Context, status constants.ReviewStatus, from, to *time.Time) ([]entity.Ticket, error)
	GetValidation(ctx context.Context, id uuid.UUID) (*entity.ValidationSummary, error)
}

// Service produces the reviewer workbook of tickets awaiting approval.
type Service struct {
	tickets TicketSource
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(tickets TicketSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tickets: tickets, logger: logger, now: time.Now}
}

const sheet = "Review Queue"

var headers = []string{
	"Ticket Date",
	"Ticket #",
	"Partner",
	"Driver",
	"Auto Matched",
	"Material",
	"Quantity",
	"Unit",
	"Total Pay",
	"Total Bill",
	"Profit",
	"OCR Confidence",
	"Validation Confidence",
	"Errors",
	"Warnings",
	"Image",
}

// ExportReviewXLSX returns an XLSX workbook for tickets with the given status and date window.
// If only from is provided the window ends today; with neither, every ticket is included.
func (s *Service) ExportReviewXLSX(ctx context.Context, status constants.ReviewStatus, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	if status == "" {
		status = constants.StatusPendingReview
	}

	fromDate, toDate := dateOnly(from), dateOnly(to)
	if fromDate != nil && toDate == nil {
		toDate = dateOnly(ptr(s.now().UTC()))
	}
	if toDate != nil {
		// inclusive of the whole last day
		end := toDate.AddDate(0, 0, 1)
		toDate = &end
	}

	rows, err := s.tickets.ListByStatus(ctx, status, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, t := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if t.TicketDate != nil {
			write(1, t.TicketDate.Format("2006-01-02"))
		}
		write(2, deref(t.TicketNumber))
		write(3, deref(t.PartnerID))
		write(4, firstNonEmpty(deref(t.DriverID), deref(t.OCRDriverName)))
		write(5, t.AutoMatched)
		write(6, deref(t.Material))
		write(7, t.Quantity)
		write(8, t.UnitType)
		write(9, t.TotalPay.StringFixed(2))
		write(10, t.TotalBill.StringFixed(2))
		write(11, t.TotalProfit.StringFixed(2))
		write(12, t.OCRConfidence)

		v, err := s.tickets.GetValidation(ctx, t.ID)
		switch {
		case err == nil:
			write(13, v.ConfidenceScore)
			write(14, len(v.Errors))
			write(15, len(v.Warnings))
		case errors.Is(err, common.ErrNotFound):
			write(13, "not validated")
		default:
			return nil, fmt.Errorf("load validation %s: %w", t.ID, err)
		}
		write(16, truncate(t.ImageRef, 200))
	}

	_ = f.SetColWidth(sheet, "A", "B", 14)
	_ = f.SetColWidth(sheet, "C", "D", 24)
	_ = f.SetColWidth(sheet, "F", "F", 20)
	_ = f.SetColWidth(sheet, "I", "M", 14)
	_ = f.SetColWidth(sheet, "P", "P", 60)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"status", status,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
