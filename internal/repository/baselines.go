package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/confidence"
)

// BaselineRepository computes trailing ticket averages for the confidence scorer.
type BaselineRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewBaselineRepository(db *DB, logger *slog.Logger) *BaselineRepository {
	return &BaselineRepository{db: db, logger: logger}
}

var baselineColumns = func() map[string]bool {
	m := make(map[string]bool, len(confidence.ScorableFields))
	for _, col := range confidence.ScorableFields {
		m[col] = true
	}
	return m
}()

// Average ignores denied and voided tickets. The site tier is keyed by partner.
// An empty organization matches only tickets with no organization.
func (r *BaselineRepository) Average(ctx context.Context, bq confidence.BaselineQuery) (confidence.Baseline, error) {
	if !baselineColumns[bq.Column] {
		return confidence.Baseline{}, common.InvalidInput(fmt.Sprintf("column %q has no baseline", bq.Column))
	}
	preds := []*entsql.Predicate{
		entsql.GTE("created_at", bq.Since.UTC()),
		entsql.NotIn("status", string(constants.StatusDenied), string(constants.StatusVoided)),
	}
	if bq.OrganizationID != "" {
		preds = append(preds, entsql.EQ("organization_id", bq.OrganizationID))
	} else {
		preds = append(preds, entsql.IsNull("organization_id"))
	}
	if bq.ExcludeTicketID != uuid.Nil {
		preds = append(preds, entsql.NEQ("id", bq.ExcludeTicketID))
	}
	switch {
	case bq.DriverID != "":
		preds = append(preds, entsql.EQ("driver_id", bq.DriverID))
	case bq.SiteID != "":
		preds = append(preds, entsql.EQ("partner_id", bq.SiteID))
	}

	b := r.db.builder()
	q, args := b.Select(entsql.Avg(bq.Column), entsql.Count(bq.Column)).
		From(b.Table("tickets")).
		Where(entsql.And(preds...)).
		Query()

	var out confidence.Baseline
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var avg stdsql.NullFloat64
		var n int64
		if err := scan(&avg, &n); err != nil {
			return err
		}
		out.Average = avg.Float64
		out.Count = int(n)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to compute baseline", "column", bq.Column, "error", err)
		return confidence.Baseline{}, common.Database("compute baseline", err)
	}
	return out, nil
}
