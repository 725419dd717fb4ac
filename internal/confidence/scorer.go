package confidence

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// NoDataScore is returned when no tier has historical records.
const NoDataScore = 0.5

// ScorableFields maps API field names onto ticket columns with historical values.
var ScorableFields = map[string]string{
	"quantity":        "quantity",
	"total_pay":       "total_pay",
	"total_bill":      "total_bill",
	"total_profit":    "total_profit",
	"pay_rate":        "pay_rate",
	"bill_rate":       "bill_rate",
	"waiting_minutes": "waiting_minutes",
	"load_weight":     "load_weight_tons",
	"distance_miles":  "distance_miles",
}

// Request identifies the value being scored.
type Request struct {
	EntityType  string  `json:"entity_type" binding:"required"`
	EntityID    string  `json:"entity_id" binding:"required"`
	FieldName   string  `json:"field_name" binding:"required"`
	ActualValue float64 `json:"actual_value"`
	DriverID    *string `json:"driver_id,omitempty"`
	SiteID      *string `json:"site_id,omitempty"`
	WindowDays  int     `json:"window_days,omitempty"`
	// DriverWindowDays narrows the driver tier only; zero means WindowDays.
	DriverWindowDays int `json:"driver_window_days,omitempty"`
	// OrganizationID scopes every tier to one tenant. Empty matches unowned tickets.
	OrganizationID string `json:"-"`
}

// BaselineQuery selects the historical rows for one tier. Empty DriverID and SiteID mean global.
type BaselineQuery struct {
	Column         string
	OrganizationID string
	DriverID       string
	SiteID         string
	Since          time.Time
	// ExcludeTicketID keeps the ticket being scored out of its own baseline.
	ExcludeTicketID uuid.UUID
}

// Baseline is an average and the number of rows it was computed from.
type Baseline struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// BaselineStore computes historical averages.
type BaselineStore interface {
	Average(ctx context.Context, q BaselineQuery) (Baseline, error)
}

// Scorer compares a value against driver, site and global baselines.
type Scorer struct {
	logger        *slog.Logger
	store         BaselineStore
	cache         BaselineCache
	defaultWindow int
	now           func() time.Time
}

type Option func(*Scorer)

func WithCache(c BaselineCache) Option      { return func(s *Scorer) { s.cache = c } }
func WithDefaultWindow(days int) Option     { return func(s *Scorer) { s.defaultWindow = days } }
func WithClock(now func() time.Time) Option { return func(s *Scorer) { s.now = now } }

func NewScorer(logger *slog.Logger, store BaselineStore, opts ...Option) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scorer{
		logger:        logger,
		store:         store,
		defaultWindow: 90,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type tier struct {
	kind   constants.BaselineType
	q      BaselineQuery
	id     string
	window int
}

// ScoreFieldConfidence scores req.ActualValue against the most specific baseline with data.
func (s *Scorer) ScoreFieldConfidence(ctx context.Context, req Request) (entity.ConfidenceScore, error) {
	column, ok := ScorableFields[req.FieldName]
	if !ok {
		return entity.ConfidenceScore{}, common.InvalidInput(fmt.Sprintf("field %q cannot be scored", req.FieldName))
	}
	window := req.WindowDays
	if window <= 0 {
		window = s.defaultWindow
	}
	driverWindow := req.DriverWindowDays
	if driverWindow <= 0 {
		driverWindow = window
	}
	base := BaselineQuery{Column: column, OrganizationID: req.OrganizationID}
	if req.EntityType == "ticket" {
		if id, err := uuid.Parse(req.EntityID); err == nil {
			base.ExcludeTicketID = id
		}
	}
	now := s.now().UTC()

	var tiers []tier
	if req.DriverID != nil && *req.DriverID != "" {
		q := base
		q.DriverID, q.Since = *req.DriverID, now.AddDate(0, 0, -driverWindow)
		tiers = append(tiers, tier{constants.BaselineDriver, q, *req.DriverID, driverWindow})
	}
	if req.SiteID != nil && *req.SiteID != "" {
		q := base
		q.SiteID, q.Since = *req.SiteID, now.AddDate(0, 0, -window)
		tiers = append(tiers, tier{constants.BaselineSite, q, *req.SiteID, window})
	}
	global := base
	global.Since = now.AddDate(0, 0, -window)
	tiers = append(tiers, tier{constants.BaselineGlobal, global, "", window})

	out := entity.ConfidenceScore{
		ID:          uuid.New(),
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		FieldName:   req.FieldName,
		ActualValue: req.ActualValue,
		CreatedAt:   s.now().UTC(),
	}

	for _, t := range tiers {
		b, err := s.baseline(ctx, t)
		if err != nil {
			return out, fmt.Errorf("%s baseline: %w", t.kind, err)
		}
		if b.Count == 0 {
			continue
		}
		dev := DeviationPercent(req.ActualValue, b.Average)
		out.Score = ScoreForDeviation(dev)
		out.BaselineType = t.kind
		out.BaselineValue = b.Average
		out.DeviationPercent = round2(dev)
		out.Reason = reason(t.kind, dev, b)
		s.logger.Debug("confidence.scored",
			"entity_id", req.EntityID, "field", req.FieldName, "baseline", t.kind,
			"baseline_value", b.Average, "deviation_pct", out.DeviationPercent, "score", out.Score)
		return out, nil
	}

	out.Score = NoDataScore
	out.Reason = "no historical data"
	out.BaselineType = constants.BaselineGlobal
	return out, nil
}

func (s *Scorer) baseline(ctx context.Context, t tier) (Baseline, error) {
	key := fmt.Sprintf("baseline:%s:%s:%s:%s:%d", t.q.OrganizationID, t.q.Column, t.kind, t.id, t.window)
	if t.q.ExcludeTicketID != uuid.Nil {
		key += ":" + t.q.ExcludeTicketID.String()
	}
	if s.cache != nil {
		if b, ok := s.cache.Get(ctx, key); ok {
			return b, nil
		}
	}
	b, err := s.store.Average(ctx, t.q)
	if err != nil {
		return Baseline{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, b)
	}
	return b, nil
}

// DeviationPercent is |actual-baseline|/baseline*100, or 100 when the baseline is 0.
func DeviationPercent(actual, baseline float64) float64 {
	if baseline == 0 {
		return 100
	}
	return math.Abs(actual-baseline) / math.Abs(baseline) * 100
}

// ScoreForDeviation buckets a deviation percentage into a fixed score.
func ScoreForDeviation(pct float64) float64 {
	switch {
	case pct <= 5:
		return 0.95
	case pct <= 10:
		return 0.85
	case pct <= 20:
		return 0.70
	case pct <= 30:
		return 0.55
	case pct <= 50:
		return 0.40
	default:
		return 0.25
	}
}

// IsAnomaly flags scores below 0.5.
func IsAnomaly(score float64) bool { return score < 0.5 }

// AnomalySeverity grades a score for reviewers.
func AnomalySeverity(score float64) string {
	switch {
	case score >= 0.7:
		return "low"
	case score >= 0.5:
		return "medium"
	case score >= 0.3:
		return "high"
	default:
		return "critical"
	}
}

func reason(kind constants.BaselineType, dev float64, b Baseline) string {
	label := map[constants.BaselineType]string{
		constants.BaselineDriver: "driver historical",
		constants.BaselineSite:   "site historical",
		constants.BaselineGlobal: "global",
	}[kind]
	return fmt.Sprintf("%.1f%% deviation from %s average %.2f (%d records)", dev, label, b.Average, b.Count)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
