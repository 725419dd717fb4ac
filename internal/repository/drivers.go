package repository

import (
	"context"
	stdsql "database/sql"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type DriverRepository interface {
	List(ctx context.Context, orgID *string) ([]entity.Driver, error)
	Get(ctx context.Context, id string) (*entity.Driver, error)
	ListAliases(ctx context.Context, orgID *string) ([]entity.DriverAlias, error)
	Create(ctx context.Context, orgID *string, d entity.Driver) error
	CreateAlias(ctx context.Context, a entity.DriverAlias) error
}

type driverRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDriverRepository(db *DB, logger *slog.Logger) DriverRepository {
	return &driverRepo{db: db, logger: logger}
}

func orgScope(column string, orgID *string) *entsql.Predicate {
	if orgID == nil {
		return nil
	}
	return entsql.Or(entsql.EQ(column, *orgID), entsql.IsNull(column))
}

func (r *driverRepo) List(ctx context.Context, orgID *string) ([]entity.Driver, error) {
	b := r.db.builder()
	sel := b.Select("id", "name", "license_number").From(b.Table("drivers")).OrderBy("name", "id")
	if p := orgScope("organization_id", orgID); p != nil {
		sel.Where(p)
	}
	q, args := sel.Query()

	var out []entity.Driver
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			d   entity.Driver
			lic stdsql.NullString
		)
		if err := scan(&d.ID, &d.Name, &lic); err != nil {
			return err
		}
		d.LicenseNumber = strOf(lic)
		out = append(out, d)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list drivers", "error", err)
		return nil, common.Database("list drivers", err)
	}
	return out, nil
}

func (r *driverRepo) Get(ctx context.Context, id string) (*entity.Driver, error) {
	b := r.db.builder()
	q, args := b.Select("id", "name", "license_number").From(b.Table("drivers")).Where(entsql.EQ("id", id)).Query()
	var found *entity.Driver
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			d   entity.Driver
			lic stdsql.NullString
		)
		if err := scan(&d.ID, &d.Name, &lic); err != nil {
			return err
		}
		d.LicenseNumber = strOf(lic)
		found = &d
		return nil
	})
	if err != nil {
		return nil, common.Database("get driver", err)
	}
	if found == nil {
		return nil, common.NotFound("driver not found")
	}
	return found, nil
}

func (r *driverRepo) ListAliases(ctx context.Context, orgID *string) ([]entity.DriverAlias, error) {
	b := r.db.builder()
	a, d := b.Table("driver_aliases").As("a"), b.Table("drivers").As("d")
	sel := b.Select(a.C("driver_id"), a.C("alias"), a.C("confidence_boost")).
		From(a).
		Join(d).On(a.C("driver_id"), d.C("id")).
		OrderBy(a.C("driver_id"), a.C("alias"))
	if p := orgScope(d.C("organization_id"), orgID); p != nil {
		sel.Where(p)
	}
	q, args := sel.Query()

	var out []entity.DriverAlias
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var al entity.DriverAlias
		if err := scan(&al.DriverID, &al.Alias, &al.ConfidenceBoost); err != nil {
			return err
		}
		out = append(out, al)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list driver aliases", "error", err)
		return nil, common.Database("list driver aliases", err)
	}
	return out, nil
}

func (r *driverRepo) Create(ctx context.Context, orgID *string, d entity.Driver) error {
	q, args := r.db.builder().Insert("drivers").
		Columns("id", "organization_id", "name", "license_number").
		Values(d.ID, nullStr(orgID), d.Name, nullStr(d.LicenseNumber)).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create driver", "driver_id", d.ID, "error", err)
		return common.Database("create driver", err)
	}
	return nil
}

func (r *driverRepo) CreateAlias(ctx context.Context, al entity.DriverAlias) error {
	q, args := r.db.builder().Insert("driver_aliases").
		Columns("driver_id", "alias", "confidence_boost").
		Values(al.DriverID, al.Alias, al.ConfidenceBoost).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create driver alias", "driver_id", al.DriverID, "error", err)
		return common.Database("create driver alias", err)
	}
	return nil
}
