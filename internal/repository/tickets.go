package repository

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type TicketRepository interface {
	Create(ctx context.Context, t *entity.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	UpdateDistance(ctx context.Context, id uuid.UUID, miles float64) error
	SaveValidation(ctx context.Context, id uuid.UUID, summary entity.ValidationSummary) error
	GetValidation(ctx context.Context, id uuid.UUID) (*entity.ValidationSummary, error)
	ListByStatus(ctx context.Context, status constants.ReviewStatus, from, to *time.Time) ([]entity.Ticket, error)
}

type ticketRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTicketRepository(db *DB, logger *slog.Logger) TicketRepository {
	return &ticketRepo{db: db, logger: logger}
}

var ticketColumns = []string{
	"id", "organization_id", "project_id", "partner_id", "driver_id", "fleet_id", "truck_id",
	"ocr_driver_name", "match_confidence", "auto_matched", "ticket_number", "material",
	"quantity", "unit_type", "pay_rate", "bill_rate", "total_pay", "total_bill", "total_profit",
	"ticket_date", "status", "ocr_text", "ocr_confidence", "image_url",
	"pickup_lat", "pickup_lng", "dump_lat", "dump_lng",
	"distance_miles", "load_weight_tons", "cubic_yards", "load_time", "dump_time", "waiting_minutes",
	"has_photo", "has_signature", "weight_verified", "late_submission", "created_at",
}

func pointCols(p *entity.GeoPoint) (any, any) {
	if p == nil {
		return nil, nil
	}
	return p.Lat, p.Lng
}

func pointOf(lat, lng stdsql.NullFloat64) *entity.GeoPoint {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &entity.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
}

// Create inserts t, assigning an ID and creation time when unset.
func (r *ticketRepo) Create(ctx context.Context, t *entity.Ticket) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = constants.StatusPendingReview
	}
	var late any
	if t.Late != nil {
		var err error
		if late, err = nullJSON(t.Late); err != nil {
			return fmt.Errorf("encode late submission: %w", err)
		}
	}
	pLat, pLng := pointCols(t.Pickup)
	dLat, dLng := pointCols(t.Dump)

	q, args := r.db.builder().Insert("tickets").
		Columns(ticketColumns...).
		Values(
			t.ID, nullStr(t.OrganizationID), nullStr(t.ProjectID), nullStr(t.PartnerID), nullStr(t.DriverID), nullStr(t.FleetID), nullStr(t.TruckID),
			nullStr(t.OCRDriverName), nullFloat(t.MatchConfidence), t.AutoMatched, nullStr(t.TicketNumber), nullStr(t.Material),
			t.Quantity, t.UnitType, t.PayRate, t.BillRate, t.TotalPay, t.TotalBill, t.TotalProfit,
			nullTime(t.TicketDate), string(t.Status), t.OCRText, t.OCRConfidence, t.ImageRef,
			pLat, pLng, dLat, dLng,
			nullFloat(t.DistanceMiles), nullFloat(t.LoadWeightTons), nullFloat(t.CubicYards), nullTime(t.LoadTime), nullTime(t.DumpTime), nullFloat(t.WaitingMinutes),
			t.HasPhoto, t.HasSignature, t.WeightVerified, late, t.CreatedAt.UTC(),
		).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to insert ticket", "ticket_id", t.ID, "error", err)
		return common.Database("insert ticket", err)
	}
	return nil
}

func (r *ticketRepo) scanTicket(scan func(...any) error) (entity.Ticket, error) {
	var (
		t                                      entity.Ticket
		org, proj, partner, driver, fleet      stdsql.NullString
		truck, ocrName, number, material, late stdsql.NullString
		matchConf, pLat, pLng, dLat, dLng      stdsql.NullFloat64
		distance, weight, yards, waiting       stdsql.NullFloat64
		ticketDate, loadTime, dumpTime         stdsql.NullTime
		status                                 string
	)
	err := scan(
		&t.ID, &org, &proj, &partner, &driver, &fleet, &truck,
		&ocrName, &matchConf, &t.AutoMatched, &number, &material,
		&t.Quantity, &t.UnitType, &t.PayRate, &t.BillRate, &t.TotalPay, &t.TotalBill, &t.TotalProfit,
		&ticketDate, &status, &t.OCRText, &t.OCRConfidence, &t.ImageRef,
		&pLat, &pLng, &dLat, &dLng,
		&distance, &weight, &yards, &loadTime, &dumpTime, &waiting,
		&t.HasPhoto, &t.HasSignature, &t.WeightVerified, &late, &t.CreatedAt,
	)
	if err != nil {
		return t, err
	}
	t.OrganizationID, t.ProjectID, t.PartnerID = strOf(org), strOf(proj), strOf(partner)
	t.DriverID, t.FleetID, t.TruckID = strOf(driver), strOf(fleet), strOf(truck)
	t.OCRDriverName, t.TicketNumber, t.Material = strOf(ocrName), strOf(number), strOf(material)
	t.MatchConfidence = floatOf(matchConf)
	t.TicketDate, t.LoadTime, t.DumpTime = timeOf(ticketDate), timeOf(loadTime), timeOf(dumpTime)
	t.Status = constants.ReviewStatus(status)
	t.Pickup, t.Dump = pointOf(pLat, pLng), pointOf(dLat, dLng)
	t.DistanceMiles, t.LoadWeightTons = floatOf(distance), floatOf(weight)
	t.CubicYards, t.WaitingMinutes = floatOf(yards), floatOf(waiting)
	t.CreatedAt = t.CreatedAt.UTC()
	if late.Valid && late.String != "" {
		var ls entity.LateSubmission
		if err := json.Unmarshal([]byte(late.String), &ls); err != nil {
			r.logger.Warn("ignoring malformed late submission", "ticket_id", t.ID, "error", err)
		} else {
			t.Late = &ls
		}
	}
	return t, nil
}

func (r *ticketRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	b := r.db.builder()
	q, args := b.Select(ticketColumns...).From(b.Table("tickets")).Where(entsql.EQ("id", id)).Query()
	var found *entity.Ticket
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		t, err := r.scanTicket(scan)
		if err != nil {
			return err
		}
		found = &t
		return nil
	})
	if err != nil {
		r.logger.Error("failed to load ticket", "ticket_id", id, "error", err)
		return nil, common.Database("load ticket", err)
	}
	if found == nil {
		return nil, common.NotFound("ticket not found")
	}
	return found, nil
}

func (r *ticketRepo) UpdateDistance(ctx context.Context, id uuid.UUID, miles float64) error {
	q, args := r.db.builder().Update("tickets").
		Set("distance_miles", miles).
		Where(entsql.EQ("id", id)).
		Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		return common.Database("update ticket distance", err)
	}
	if n == 0 {
		return common.NotFound("ticket not found")
	}
	return nil
}

// SaveValidation replaces the stored summary for the ticket.
func (r *ticketRepo) SaveValidation(ctx context.Context, id uuid.UUID, summary entity.ValidationSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode validation summary: %w", err)
	}
	q, args := r.db.builder().Insert("ticket_validations").
		Columns("ticket_id", "summary", "confidence_score", "validated_at").
		Values(id, string(raw), summary.ConfidenceScore, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("ticket_id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to save validation", "ticket_id", id, "error", err)
		return common.Database("save validation", err)
	}
	return nil
}

func (r *ticketRepo) GetValidation(ctx context.Context, id uuid.UUID) (*entity.ValidationSummary, error) {
	b := r.db.builder()
	q, args := b.Select("summary").From(b.Table("ticket_validations")).Where(entsql.EQ("ticket_id", id)).Query()
	var raw *string
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var s string
		if err := scan(&s); err != nil {
			return err
		}
		raw = &s
		return nil
	})
	if err != nil {
		return nil, common.Database("load validation", err)
	}
	if raw == nil {
		return nil, common.NotFound("ticket has not been validated")
	}
	var out entity.ValidationSummary
	if err := json.Unmarshal([]byte(*raw), &out); err != nil {
		return nil, fmt.Errorf("decode validation summary: %w", err)
	}
	return &out, nil
}

// ListByStatus returns tickets created within [from, to), newest first. Nil bounds are open.
func (r *ticketRepo) ListByStatus(ctx context.Context, status constants.ReviewStatus, from, to *time.Time) ([]entity.Ticket, error) {
	b := r.db.builder()
	preds := []*entsql.Predicate{entsql.EQ("status", string(status))}
	if from != nil {
		preds = append(preds, entsql.GTE("created_at", from.UTC()))
	}
	if to != nil {
		preds = append(preds, entsql.LT("created_at", to.UTC()))
	}
	q, args := b.Select(ticketColumns...).
		From(b.Table("tickets")).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("created_at"), "id").
		Query()

	var out []entity.Ticket
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		t, err := r.scanTicket(scan)
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list tickets", "status", status, "error", err)
		return nil, common.Database("list tickets", err)
	}
	return out, nil
}
