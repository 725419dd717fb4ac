package repository

import (
	"context"
	stdsql "database/sql"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type GeofenceRepository interface {
	ListForProject(ctx context.Context, projectID string) ([]entity.Geofence, error)
	ListOrgWide(ctx context.Context, orgID *string) ([]entity.Geofence, error)
	Create(ctx context.Context, g entity.Geofence) error
}

type geofenceRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewGeofenceRepository(db *DB, logger *slog.Logger) GeofenceRepository {
	return &geofenceRepo{db: db, logger: logger}
}

func (r *geofenceRepo) ListForProject(ctx context.Context, projectID string) ([]entity.Geofence, error) {
	return r.list(ctx, entsql.And(entsql.EQ("active", true), entsql.EQ("project_id", projectID)))
}

// ListOrgWide returns fences not tied to any project.
func (r *geofenceRepo) ListOrgWide(ctx context.Context, orgID *string) ([]entity.Geofence, error) {
	return r.list(ctx, entsql.And(entsql.EQ("active", true), entsql.IsNull("project_id"), sharedOr("organization_id", orgID)))
}

func (r *geofenceRepo) list(ctx context.Context, where *entsql.Predicate) ([]entity.Geofence, error) {
	b := r.db.builder()
	q, args := b.Select("id", "organization_id", "project_id", "fence_type", "center_lat", "center_lng", "radius_miles", "active").
		From(b.Table("geofences")).
		Where(where).
		OrderBy("id").
		Query()

	var out []entity.Geofence
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			g          entity.Geofence
			org, proj  stdsql.NullString
			fenceType  string
			radiusMile stdsql.NullFloat64
		)
		if err := scan(&g.ID, &org, &proj, &fenceType, &g.Center.Lat, &g.Center.Lng, &radiusMile, &g.Active); err != nil {
			return err
		}
		g.OrganizationID = strOf(org)
		g.ProjectID = strOf(proj)
		g.FenceType = constants.FenceType(fenceType)
		g.RadiusMiles = floatOf(radiusMile)
		out = append(out, g)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list geofences", "error", err)
		return nil, common.Database("list geofences", err)
	}
	return out, nil
}

func (r *geofenceRepo) Create(ctx context.Context, g entity.Geofence) error {
	err := common.NewValidator().
		Field("fence_type", string(g.FenceType), common.OneOf(string(constants.FencePickup), string(constants.FenceDump))).
		Check(g.RadiusMiles == nil || *g.RadiusMiles > 0, "radius_miles", "must be positive").
		Err()
	if err != nil {
		return err
	}
	q, args := r.db.builder().Insert("geofences").
		Columns("id", "organization_id", "project_id", "fence_type", "center_lat", "center_lng", "radius_miles", "active").
		Values(g.ID, nullStr(g.OrganizationID), nullStr(g.ProjectID), string(g.FenceType), g.Center.Lat, g.Center.Lng, nullFloat(g.RadiusMiles), g.Active).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create geofence", "geofence_id", g.ID, "error", err)
		return common.Database("create geofence", err)
	}
	return nil
}
