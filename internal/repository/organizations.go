package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type OrganizationRepository interface {
	Vertical(ctx context.Context, orgID string) (string, error)
	Upsert(ctx context.Context, org entity.Organization) error
}

type organizationRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewOrganizationRepository(db *DB, logger *slog.Logger) OrganizationRepository {
	return &organizationRepo{db: db, logger: logger}
}

func (r *organizationRepo) Vertical(ctx context.Context, orgID string) (string, error) {
	q, args := r.db.builder().Select("vertical").
		From(r.db.builder().Table("organizations")).
		Where(entsql.EQ("id", orgID)).
		Query()
	var vertical string
	found := false
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		found = true
		return scan(&vertical)
	})
	if err != nil {
		r.logger.Error("failed to load organization vertical", "organization_id", orgID, "error", err)
		return "", common.Database("load organization", err)
	}
	if !found {
		return "", common.NotFound("organization not found")
	}
	return vertical, nil
}

func (r *organizationRepo) Upsert(ctx context.Context, org entity.Organization) error {
	q, args := r.db.builder().Insert("organizations").
		Columns("id", "name", "vertical").
		Values(org.ID, org.Name, org.Vertical).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to upsert organization", "organization_id", org.ID, "error", err)
		return common.Database("upsert organization", err)
	}
	return nil
}
