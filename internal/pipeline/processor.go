package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/extract"
	"github.com/monicap360/move-around-tms/internal/metrics"
	"github.com/monicap360/move-around-tms/internal/parsefields"
	"github.com/monicap360/move-around-tms/internal/rates"
)

type PartnerDirectory interface {
	ListActive(ctx context.Context, orgID *string) ([]entity.Partner, error)
}

type DriverDirectory interface {
	List(ctx context.Context, orgID *string) ([]entity.Driver, error)
	ListAliases(ctx context.Context, orgID *string) ([]entity.DriverAlias, error)
	Get(ctx context.Context, id string) (*entity.Driver, error)
}

type TicketWriter interface {
	Create(ctx context.Context, t *entity.Ticket) error
}

type DocumentWriter interface {
	Create(ctx context.Context, d *entity.DriverDocument) error
}

// Trip carries optional telematics captured by the driver app alongside the photo.
type Trip struct {
	Pickup         *entity.GeoPoint `json:"pickup,omitempty"`
	Dump           *entity.GeoPoint `json:"dump,omitempty"`
	DistanceMiles  *float64         `json:"distance_miles,omitempty"`
	LoadWeightTons *float64         `json:"load_weight,omitempty"`
	CubicYards     *float64         `json:"cubic_yards,omitempty"`
	LoadTime       *time.Time       `json:"load_time,omitempty"`
	DumpTime       *time.Time       `json:"dump_time,omitempty"`
	WaitingMinutes *float64         `json:"waiting_minutes,omitempty"`
	HasPhoto       bool             `json:"has_photo"`
	HasSignature   bool             `json:"has_signature"`
	WeightVerified bool             `json:"weight_verified"`
}

// Submission is one uploaded ticket or HR document.
type Submission struct {
	Kind           string
	Source         extract.ImageSource
	OrganizationID *string
	ProjectID      *string
	DriverID       *string
	FleetID        *string
	TruckID        *string
	FullNameHint   string
	Late           *entity.LateSubmission
	Trip           Trip
}

// TicketOutcome is the result of the ticket path.
type TicketOutcome struct {
	Ticket         entity.Ticket            `json:"ticket"`
	MatchedPartner *string                  `json:"matched_partner"`
	MatchedDriver  *entity.DriverMatch      `json:"matched_driver"`
	Extracted      parsefields.TicketFields `json:"extracted_data"`
	Rates          rates.Rates              `json:"rates"`
}

// HROutcome is the result of the HR path.
type HROutcome struct {
	DocType        constants.DocType     `json:"docType"`
	ExpirationDate *time.Time            `json:"expiration_date"`
	MatchedDriver  *entity.DriverMatch   `json:"matched_driver"`
	Inserted       entity.DriverDocument `json:"inserted"`
}

// Outcome holds exactly one of Ticket or HR, selected by Kind.
type Outcome struct {
	Kind   constants.DocKind
	Ticket *TicketOutcome
	HR     *HROutcome
}

// Processor coordinates OCR, classification and the ticket or HR stage.
type Processor struct {
	logger     *slog.Logger
	ocr        *OCRStage
	tickets    *TicketStage
	hr         *HRStage
	dispatcher async.Dispatcher
	metrics    *metrics.PipelineMetrics
}

type Option func(*Processor)

// WithDispatcher enables best-effort scoring after each ticket insert.
func WithDispatcher(d async.Dispatcher) Option      { return func(p *Processor) { p.dispatcher = d } }
func WithMetrics(m *metrics.PipelineMetrics) Option { return func(p *Processor) { p.metrics = m } }

func NewProcessor(logger *slog.Logger, ocr *OCRStage, tickets *TicketStage, hr *HRStage, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{logger: logger, ocr: ocr, tickets: tickets, hr: hr}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs one submission end to end. OCR failures write nothing; scoring
// dispatch failures are logged and never fail the submission.
func (p *Processor) Process(ctx context.Context, sub Submission) (Outcome, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	logger := p.logger.With("request_id", reqID)
	ctx = common.WithLogger(common.WithRequestID(ctx, reqID), logger)

	if err := p.validate(sub); err != nil {
		p.metrics.RecordSubmission(constants.DocKind(sub.Kind), "invalid_input")
		return Outcome{}, err
	}

	res, err := p.ocr.Run(ctx, sub.Source)
	if err != nil {
		p.metrics.RecordSubmission(constants.DocKind(sub.Kind), "ocr_failed")
		return Outcome{}, err
	}
	p.metrics.ObserveOCR(res.Provider, res.Duration, res.Confidence)

	kind := parsefields.Classify(res.Text, sub.Kind)
	logger.Info("pipeline.classified", "kind", kind, "hint", sub.Kind)

	out := Outcome{Kind: kind}
	switch kind {
	case constants.KindHR:
		hr, err := p.hr.Run(ctx, sub, res)
		if err != nil {
			p.metrics.RecordSubmission(kind, "store_failed")
			return out, err
		}
		out.HR = hr
	default:
		t, err := p.tickets.Run(ctx, sub, res)
		if err != nil {
			p.metrics.RecordSubmission(kind, "store_failed")
			return out, err
		}
		out.Ticket = t
		p.dispatchScoring(ctx, t.Ticket)
	}
	p.metrics.RecordSubmission(kind, "ok")
	return out, nil
}

func (p *Processor) validate(sub Submission) error {
	if err := sub.Source.Validate(); err != nil {
		return err
	}
	return common.NewValidator().
		Field("kind", sub.Kind, common.OneOf("", string(constants.KindTicket), string(constants.KindHR))).
		Err()
}

func (p *Processor) dispatchScoring(ctx context.Context, t entity.Ticket) {
	if p.dispatcher == nil {
		return
	}
	task := async.ScoringTask{TicketID: t.ID, SubmittedAt: time.Now().UTC()}
	if t.OrganizationID != nil {
		task.OrganizationID = *t.OrganizationID
	}
	// the request context may end before the task runs
	if err := p.dispatcher.DispatchScoring(context.WithoutCancel(ctx), task); err != nil {
		level := slog.LevelError
		if errors.Is(err, async.ErrQueueFull) {
			level = slog.LevelWarn
		}
		common.LoggerFromContext(ctx, p.logger).Log(ctx, level, "scoring.dispatch.failed", "ticket_id", t.ID, "err", err)
		return
	}
	common.LoggerFromContext(ctx, p.logger).Debug("scoring.dispatched", "ticket_id", t.ID)
}
