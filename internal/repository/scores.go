package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type ScoreRepository interface {
	Save(ctx context.Context, s entity.ConfidenceScore) error
	ListForEntity(ctx context.Context, entityType, entityID string) ([]entity.ConfidenceScore, error)
}

type scoreRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewScoreRepository(db *DB, logger *slog.Logger) ScoreRepository {
	return &scoreRepo{db: db, logger: logger}
}

var scoreColumns = []string{
	"id", "entity_type", "entity_id", "field_name", "score", "reason", "baseline_type",
	"baseline_value", "actual_value", "deviation_percentage", "created_at",
}

func (r *scoreRepo) Save(ctx context.Context, s entity.ConfidenceScore) error {
	q, args := r.db.builder().Insert("confidence_scores").
		Columns(scoreColumns...).
		Values(s.ID, s.EntityType, s.EntityID, s.FieldName, s.Score, s.Reason, string(s.BaselineType),
			s.BaselineValue, s.ActualValue, s.DeviationPercent, s.CreatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to save confidence score", "entity_id", s.EntityID, "field", s.FieldName, "error", err)
		return common.Database("save confidence score", err)
	}
	return nil
}

func (r *scoreRepo) ListForEntity(ctx context.Context, entityType, entityID string) ([]entity.ConfidenceScore, error) {
	b := r.db.builder()
	q, args := b.Select(scoreColumns...).
		From(b.Table("confidence_scores")).
		Where(entsql.And(entsql.EQ("entity_type", entityType), entsql.EQ("entity_id", entityID))).
		OrderBy("field_name", "created_at").
		Query()
	var out []entity.ConfidenceScore
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			s    entity.ConfidenceScore
			kind string
		)
		if err := scan(&s.ID, &s.EntityType, &s.EntityID, &s.FieldName, &s.Score, &s.Reason, &kind,
			&s.BaselineValue, &s.ActualValue, &s.DeviationPercent, &s.CreatedAt); err != nil {
			return err
		}
		s.BaselineType = constants.BaselineType(kind)
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, common.Database("list confidence scores", err)
	}
	return out, nil
}
