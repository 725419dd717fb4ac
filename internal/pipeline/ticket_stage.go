package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/extract"
	"github.com/monicap360/move-around-tms/internal/matching"
	"github.com/monicap360/move-around-tms/internal/parsefields"
	"github.com/monicap360/move-around-tms/internal/rates"
)

// OverrideConfidence is recorded when the submitter names the driver explicitly.
const OverrideConfidence = 100.0

type TicketStage struct {
	Partners PartnerDirectory
	Drivers  DriverDirectory
	Tickets  TicketWriter
	Logger   *slog.Logger
}

func NewTicketStage(partners PartnerDirectory, drivers DriverDirectory, tickets TicketWriter, logger *slog.Logger) *TicketStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketStage{Partners: partners, Drivers: drivers, Tickets: tickets, Logger: logger}
}

// Run extracts, matches, prices and inserts a ticket in review status.
func (s *TicketStage) Run(ctx context.Context, sub Submission, res extract.Result) (*TicketOutcome, error) {
	logger := common.LoggerFromContext(ctx, s.Logger)

	partners, err := s.Partners.ListActive(ctx, sub.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load partners: %w", err)
	}
	partner := matching.MatchPartner(res.Text, partners)
	fields := parsefields.ExtractTicketFields(res.Text, partner)

	// only the submitter's hint feeds the name-hint tier; the OCR name is matched as text
	match, autoMatched, err := resolveDriver(ctx, s.Drivers, sub, res.Text, sub.FullNameHint, "")
	if err != nil {
		return nil, err
	}

	r := rates.Resolve(partner, fields.Material)
	totals := rates.ComputeTotals(fields.Quantity, r)

	t := entity.Ticket{
		OrganizationID: sub.OrganizationID,
		ProjectID:      sub.ProjectID,
		FleetID:        sub.FleetID,
		TruckID:        sub.TruckID,
		OCRDriverName:  fields.DriverName,
		AutoMatched:    autoMatched,
		TicketNumber:   fields.TicketNumber,
		Material:       fields.Material,
		UnitType:       fields.UnitType,
		PayRate:        r.PayRate,
		BillRate:       r.BillRate,
		TotalPay:       totals.TotalPay,
		TotalBill:      totals.TotalBill,
		TotalProfit:    totals.TotalProfit,
		TicketDate:     fields.TicketDate,
		Status:         constants.StatusPendingReview,
		OCRText:        res.Text,
		OCRConfidence:  res.Confidence,
		ImageRef:       sub.Source.Ref(),
		Pickup:         sub.Trip.Pickup,
		Dump:           sub.Trip.Dump,
		DistanceMiles:  sub.Trip.DistanceMiles,
		LoadWeightTons: sub.Trip.LoadWeightTons,
		CubicYards:     sub.Trip.CubicYards,
		LoadTime:       sub.Trip.LoadTime,
		DumpTime:       sub.Trip.DumpTime,
		WaitingMinutes: sub.Trip.WaitingMinutes,
		HasPhoto:       sub.Trip.HasPhoto,
		HasSignature:   sub.Trip.HasSignature,
		WeightVerified: sub.Trip.WeightVerified,
		Late:           sub.Late,
	}
	if fields.Quantity != nil {
		t.Quantity = *fields.Quantity
	}
	if partner != nil {
		t.PartnerID = &partner.ID
	}
	if match != nil {
		t.DriverID = &match.ID
		t.MatchConfidence = &match.Confidence
	}

	if err := s.Tickets.Create(ctx, &t); err != nil {
		logger.Error("pipeline.ticket.insert_failed", "err", err)
		return nil, err
	}

	out := &TicketOutcome{Ticket: t, MatchedDriver: match, Extracted: fields, Rates: r}
	if partner != nil {
		out.MatchedPartner = &partner.Name
	}
	logger.Info("pipeline.ticket.created",
		"ticket_id", t.ID,
		"partner_id", deref(t.PartnerID),
		"driver_id", deref(t.DriverID),
		"auto_matched", t.AutoMatched,
		"quantity", t.Quantity,
		"total_pay", t.TotalPay.String())
	return out, nil
}

// resolveDriver honours an explicit driver id, otherwise runs the matcher tiers.
func resolveDriver(ctx context.Context, drivers DriverDirectory, sub Submission, text, nameHint, licenseHint string) (*entity.DriverMatch, bool, error) {
	logger := common.LoggerFromContext(ctx, slog.Default())
	if sub.DriverID != nil && *sub.DriverID != "" {
		m := &entity.DriverMatch{ID: *sub.DriverID, Confidence: OverrideConfidence}
		if d, err := drivers.Get(ctx, *sub.DriverID); err == nil {
			m.Name = d.Name
		} else {
			logger.Warn("pipeline.driver.override_unknown", "driver_id", *sub.DriverID, "err", err)
		}
		return m, false, nil
	}

	list, err := drivers.List(ctx, sub.OrganizationID)
	if err != nil {
		return nil, false, fmt.Errorf("load drivers: %w", err)
	}
	aliases, err := drivers.ListAliases(ctx, sub.OrganizationID)
	if err != nil {
		return nil, false, fmt.Errorf("load driver aliases: %w", err)
	}
	m, tier := matching.MatchDriver(text, list, aliases, nameHint, licenseHint)
	if m == nil {
		logger.Info("pipeline.driver.unmatched", "drivers", len(list))
		return nil, false, nil
	}
	logger.Info("pipeline.driver.matched", "driver_id", m.ID, "tier", tier, "confidence", m.Confidence)
	return m, true, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
