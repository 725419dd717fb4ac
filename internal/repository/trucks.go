package repository

import (
	"context"
	stdsql "database/sql"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type TruckRepository interface {
	CapacityTons(ctx context.Context, truckID string) (*float64, error)
	Upsert(ctx context.Context, t entity.Truck) error
}

type truckRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTruckRepository(db *DB, logger *slog.Logger) TruckRepository {
	return &truckRepo{db: db, logger: logger}
}

// CapacityTons returns nil for unknown trucks and trucks without a recorded capacity.
func (r *truckRepo) CapacityTons(ctx context.Context, truckID string) (*float64, error) {
	b := r.db.builder()
	q, args := b.Select("capacity_tons").From(b.Table("trucks")).Where(entsql.EQ("id", truckID)).Query()
	var capacity *float64
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var nf stdsql.NullFloat64
		if err := scan(&nf); err != nil {
			return err
		}
		capacity = floatOf(nf)
		return nil
	})
	if err != nil {
		return nil, common.Database("load truck capacity", err)
	}
	return capacity, nil
}

func (r *truckRepo) Upsert(ctx context.Context, t entity.Truck) error {
	q, args := r.db.builder().Insert("trucks").
		Columns("id", "capacity_tons").
		Values(t.ID, nullFloat(t.CapacityTons)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to upsert truck", "truck_id", t.ID, "error", err)
		return common.Database("upsert truck", err)
	}
	return nil
}
