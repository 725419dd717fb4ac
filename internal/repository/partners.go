package repository

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/configschema"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type PartnerRepository interface {
	ListActive(ctx context.Context, orgID *string) ([]entity.Partner, error)
	Create(ctx context.Context, orgID *string, p entity.Partner) error
}

type partnerRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewPartnerRepository(db *DB, logger *slog.Logger) PartnerRepository {
	return &partnerRepo{db: db, logger: logger}
}

// ValidatePartner checks the pattern set shape and that every pattern compiles.
func ValidatePartner(p entity.Partner) error {
	v := common.NewValidator().Field("name", p.Name, common.Required)
	if len(p.Patterns) > 0 {
		if err := configschema.ValidatePartnerPatterns(p.Patterns); err != nil {
			v.Check(false, "patterns", err.Error())
		}
		for k, raw := range p.Patterns {
			v.Field("patterns."+k, raw, common.ValidRegex)
		}
	}
	return v.Err()
}

func (r *partnerRepo) Create(ctx context.Context, orgID *string, p entity.Partner) error {
	if err := ValidatePartner(p); err != nil {
		return err
	}
	patterns, err := nullJSON(p.Patterns)
	if err != nil {
		return err
	}
	var materialRates any
	if len(p.MaterialRates) > 0 {
		if materialRates, err = nullJSON(p.MaterialRates); err != nil {
			return err
		}
	}
	q, args := r.db.builder().Insert("partners").
		Columns("id", "organization_id", "name", "email_domain", "patterns", "pay_rate", "bill_rate", "material_rates", "active", "created_at").
		Values(p.ID, nullStr(orgID), p.Name, nullStr(p.EmailDomain), patterns, p.PayRate, p.BillRate, materialRates, p.Active, time.Now().UTC()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create partner", "partner_id", p.ID, "error", err)
		return common.Database("create partner", err)
	}
	return nil
}

// ListActive returns active partners for the organization plus shared ones.
// Stored configuration that fails validation is dropped per field, never fatal.
func (r *partnerRepo) ListActive(ctx context.Context, orgID *string) ([]entity.Partner, error) {
	b := r.db.builder()
	q, args := b.Select("id", "name", "email_domain", "patterns", "pay_rate", "bill_rate", "material_rates", "active").
		From(b.Table("partners")).
		Where(entsql.And(entsql.EQ("active", true), sharedOr("organization_id", orgID))).
		OrderBy("created_at", "id").
		Query()

	var out []entity.Partner
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			p                         entity.Partner
			email, patterns, matRates stdsql.NullString
		)
		if err := scan(&p.ID, &p.Name, &email, &patterns, &p.PayRate, &p.BillRate, &matRates, &p.Active); err != nil {
			return err
		}
		p.EmailDomain = strOf(email)
		p.Patterns = r.decodePatterns(p.ID, patterns)
		p.MaterialRates = r.decodeMaterialRates(p.ID, matRates)
		out = append(out, p)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list partners", "error", err)
		return nil, common.Database("list partners", err)
	}
	return out, nil
}

func (r *partnerRepo) decodePatterns(id string, raw stdsql.NullString) map[string]string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var patterns map[string]string
	if err := json.Unmarshal([]byte(raw.String), &patterns); err != nil {
		r.logger.Warn("partner.patterns.decode", "partner_id", id, "error", err)
		return nil
	}
	if err := configschema.ValidatePartnerPatterns(patterns); err != nil {
		r.logger.Warn("partner.patterns.invalid", "partner_id", id, "error", err)
	}
	return patterns
}

func (r *partnerRepo) decodeMaterialRates(id string, raw stdsql.NullString) map[string]entity.MaterialRate {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := configschema.ValidateMaterialRates([]byte(raw.String)); err != nil {
		r.logger.Warn("partner.material_rates.invalid", "partner_id", id, "error", err)
		return nil
	}
	var rates map[string]entity.MaterialRate
	if err := json.Unmarshal([]byte(raw.String), &rates); err != nil {
		r.logger.Warn("partner.material_rates.decode", "partner_id", id, "error", err)
		return nil
	}
	return rates
}
