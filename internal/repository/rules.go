package repository

import (
	"context"
	stdsql "database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/configschema"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type RuleRepository interface {
	ListActive(ctx context.Context, orgID *string) ([]entity.ValidationRule, error)
	Create(ctx context.Context, rule entity.ValidationRule) error
}

type ruleRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRuleRepository(db *DB, logger *slog.Logger) RuleRepository {
	return &ruleRepo{db: db, logger: logger}
}

var ruleColumns = []string{
	"id", "organization_id", "rule_type", "name", "rule_logic", "threshold",
	"severity", "auto_correct", "project_specific", "active",
}

// ListActive returns rules oldest first so the engine's first-per-type pick is stable.
func (r *ruleRepo) ListActive(ctx context.Context, orgID *string) ([]entity.ValidationRule, error) {
	b := r.db.builder()
	q, args := b.Select(ruleColumns...).
		From(b.Table("validation_rules")).
		Where(entsql.And(entsql.EQ("active", true), sharedOr("organization_id", orgID))).
		OrderBy("created_at", "id").
		Query()

	var out []entity.ValidationRule
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			rule      entity.ValidationRule
			org       stdsql.NullString
			logic     stdsql.NullString
			threshold stdsql.NullFloat64
			ruleType  string
			severity  string
		)
		if err := scan(&rule.ID, &org, &ruleType, &rule.Name, &logic, &threshold,
			&severity, &rule.AutoCorrect, &rule.ProjectSpecific, &rule.Active); err != nil {
			return err
		}
		rule.OrganizationID = strOf(org)
		rule.RuleType = constants.RuleType(ruleType)
		rule.Severity = constants.Severity(severity)
		rule.Threshold = floatOf(threshold)
		if logic.Valid {
			rule.RuleLogic = []byte(logic.String)
		}
		out = append(out, rule)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list validation rules", "error", err)
		return nil, common.Database("list validation rules", err)
	}
	return out, nil
}

func (r *ruleRepo) Create(ctx context.Context, rule entity.ValidationRule) error {
	v := common.NewValidator().
		Field("name", rule.Name, common.Required).
		Field("rule_type", string(rule.RuleType), common.OneOf(constants.RuleTypesAsStringSlice()...)).
		Field("severity", string(rule.Severity), common.OneOf(string(constants.SeverityWarning), string(constants.SeverityError), string(constants.SeverityBlock)))
	if len(rule.RuleLogic) > 0 {
		if err := configschema.ValidateRuleLogic(rule.RuleType, rule.RuleLogic); err != nil {
			v.Check(false, "rule_logic", err.Error())
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	var logic any
	if len(rule.RuleLogic) > 0 {
		logic = string(rule.RuleLogic)
	}
	q, args := r.db.builder().Insert("validation_rules").
		Columns(append(ruleColumns, "created_at")...).
		Values(rule.ID, nullStr(rule.OrganizationID), string(rule.RuleType), rule.Name, logic, nullFloat(rule.Threshold),
			string(rule.Severity), rule.AutoCorrect, rule.ProjectSpecific, rule.Active, time.Now().UTC()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create validation rule", "rule_id", rule.ID, "error", err)
		return common.Database("create validation rule", err)
	}
	return nil
}
