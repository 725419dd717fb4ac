package validation

import (
	"encoding/json"
	"log/slog"

	"github.com/monicap360/move-around-tms/internal/configschema"
	"github.com/monicap360/move-around-tms/internal/entity"
)

// ruleLogic is the union of the rule_logic keys understood by the engine.
type ruleLogic struct {
	MaxVariancePercent     *float64 `json:"max_variance_percent"`
	WarningVariancePercent *float64 `json:"warning_variance_percent"`
	DefaultCapacityTons    *float64 `json:"default_capacity_tons"`
	OverloadFactor         *float64 `json:"overload_factor"`
	DensityTolerance       *float64 `json:"density_tolerance"`
	MaxHours               *float64 `json:"max_hours"`
	RequirePhoto           *bool    `json:"require_photo"`
	RequireSignature       *bool    `json:"require_signature"`
	DefaultRadiusMiles     *float64 `json:"default_radius_miles"`
}

// parseLogic decodes rule_logic; invalid logic is logged and treated as empty.
func parseLogic(logger *slog.Logger, rule entity.ValidationRule) ruleLogic {
	var l ruleLogic
	if len(rule.RuleLogic) == 0 {
		return l
	}
	if err := configschema.ValidateRuleLogic(rule.RuleType, rule.RuleLogic); err != nil {
		logger.Warn("validation.rule_logic.invalid", "rule_id", rule.ID, "rule_type", rule.RuleType, "err", err)
		return ruleLogic{}
	}
	if err := json.Unmarshal(rule.RuleLogic, &l); err != nil {
		logger.Warn("validation.rule_logic.decode", "rule_id", rule.ID, "err", err)
		return ruleLogic{}
	}
	return l
}

func pick(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
