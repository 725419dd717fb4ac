package configschema

import (
	"encoding/json"
	"fmt"

	"github.com/monicap360/move-around-tms/constants"
)

// PartnerPatternsSchema describes the partner pattern set stored alongside a partner.
func PartnerPatternsSchema() map[string]any {
	str := map[string]any{"type": "string", "minLength": 1}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"ticket_no":    str,
			"material":     str,
			"quantity":     str,
			"date":         str,
			"company_hint": str,
		},
	}
}

// MaterialRatesSchema describes per-material rate overrides.
func MaterialRatesSchema() map[string]any {
	rate := map[string]any{"type": []any{"number", "string", "null"}}
	return map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"pay_rate":  rate,
				"bill_rate": rate,
			},
		},
	}
}

func positive() map[string]any { return map[string]any{"type": "number", "exclusiveMinimum": 0} }

// RuleLogicSchema returns the rule_logic schema for a rule type.
func RuleLogicSchema(t constants.RuleType) map[string]any {
	props := map[string]any{}
	switch t {
	case constants.RuleDistance:
		props["max_variance_percent"] = positive()
		props["warning_variance_percent"] = positive()
	case constants.RuleWeight:
		props["default_capacity_tons"] = positive()
		props["overload_factor"] = positive()
		props["density_tolerance"] = positive()
	case constants.RuleTime:
		props["max_hours"] = positive()
	case constants.RulePhoto:
		props["require_photo"] = map[string]any{"type": "boolean"}
	case constants.RuleSignature:
		props["require_signature"] = map[string]any{"type": "boolean"}
	case constants.RuleLocation:
		props["default_radius_miles"] = positive()
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// ValidatePartnerPatterns checks the shape of a pattern set.
func ValidatePartnerPatterns(patterns map[string]string) error {
	b, err := json.Marshal(patterns)
	if err != nil {
		return err
	}
	return ValidateJSONAgainstSchema("partner_patterns", PartnerPatternsSchema(), b)
}

// ValidateMaterialRates checks raw material_rates JSON before decoding.
func ValidateMaterialRates(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	return ValidateJSONAgainstSchema("material_rates", MaterialRatesSchema(), raw)
}

// ValidateRuleLogic checks raw rule_logic JSON for a rule type. Empty logic is valid.
func ValidateRuleLogic(t constants.RuleType, raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := ValidateJSONAgainstSchema("rule_logic_"+string(t), RuleLogicSchema(t), raw); err != nil {
		return fmt.Errorf("rule_logic for %s: %w", t, err)
	}
	return nil
}
