package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/confidence"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/metrics"
)

type TicketValidator interface {
	ValidateTicket(ctx context.Context, ticketID uuid.UUID) (entity.ValidationSummary, error)
}

type TicketReader interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
}

// FieldScorer is satisfied by the local VerticalScorer and the RemoteScorer.
type FieldScorer interface {
	ScoreForVertical(ctx context.Context, orgID string, req confidence.Request) (entity.ConfidenceScore, error)
}

type ScoreWriter interface {
	Save(ctx context.Context, s entity.ConfidenceScore) error
}

// ScoringHandler validates a fresh ticket and scores its numeric fields against history.
type ScoringHandler struct {
	logger    *slog.Logger
	validator TicketValidator
	tickets   TicketReader
	scorer    FieldScorer
	scores    ScoreWriter
	metrics   *metrics.PipelineMetrics
}

var _ async.Handler = (*ScoringHandler)(nil)

// NewScoringHandler builds the handler. scores may be nil when the scorer persists
// its own results.
func NewScoringHandler(logger *slog.Logger, validator TicketValidator, tickets TicketReader, scorer FieldScorer, scores ScoreWriter, m *metrics.PipelineMetrics) *ScoringHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringHandler{logger: logger, validator: validator, tickets: tickets, scorer: scorer, scores: scores, metrics: m}
}

type scoredField struct {
	name  string
	value func(t *entity.Ticket) *float64
}

var scoredFields = []scoredField{
	{"quantity", func(t *entity.Ticket) *float64 { return &t.Quantity }},
	{"total_pay", func(t *entity.Ticket) *float64 {
		f, _ := t.TotalPay.Float64()
		return &f
	}},
	{"waiting_minutes", func(t *entity.Ticket) *float64 { return t.WaitingMinutes }},
	{"load_weight", func(t *entity.Ticket) *float64 { return t.LoadWeightTons }},
}

func (h *ScoringHandler) HandleScoring(ctx context.Context, task async.ScoringTask) error {
	logger := h.logger.With("ticket_id", task.TicketID)
	ctx = common.WithLogger(ctx, logger)

	if h.validator != nil {
		summary, err := h.validator.ValidateTicket(ctx, task.TicketID)
		if err != nil {
			return fmt.Errorf("validate ticket: %w", err)
		}
		h.metrics.ObserveValidation(summary.ConfidenceScore)
	}

	t, err := h.tickets.Get(ctx, task.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket: %w", err)
	}

	scored := 0
	for _, f := range scoredFields {
		v := f.value(t)
		if v == nil {
			continue
		}
		req := confidence.Request{
			EntityType:  "ticket",
			EntityID:    t.ID.String(),
			FieldName:   f.name,
			ActualValue: *v,
			DriverID:    t.DriverID,
			SiteID:      t.PartnerID,
		}
		s, err := h.scorer.ScoreForVertical(ctx, task.OrganizationID, req)
		if err != nil {
			return fmt.Errorf("score %s: %w", f.name, err)
		}
		if h.scores != nil {
			if err := h.scores.Save(ctx, s); err != nil {
				return fmt.Errorf("save %s score: %w", f.name, err)
			}
		}
		h.metrics.ObserveFieldScore(f.name, s.BaselineType, s.Score)
		if confidence.IsAnomaly(s.Score) {
			logger.Warn("confidence.anomaly",
				"field", f.name, "score", s.Score,
				"severity", confidence.AnomalySeverity(s.Score), "reason", s.Reason)
		}
		scored++
	}
	logger.Info("scoring.ok", "fields", scored)
	return nil
}
