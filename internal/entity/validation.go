package entity

import (
	"github.com/monicap360/move-around-tms/constants"
)

// Correction records an auto-correction applied by a rule.
type Correction struct {
	Field     string  `json:"field"`
	Original  float64 `json:"original"`
	Corrected float64 `json:"corrected"`
	Reason    string  `json:"reason"`
}

// ValidationResult is the outcome of one rule category.
type ValidationResult struct {
	RuleType        constants.RuleType     `json:"rule_type"`
	Status          constants.ResultStatus `json:"status"`
	RuleID          string                 `json:"rule_id"`
	ActualValue     *float64               `json:"actual_value,omitempty"`
	ExpectedValue   *float64               `json:"expected_value,omitempty"`
	VariancePercent *float64               `json:"variance_percent,omitempty"`
	Confidence      float64                `json:"confidence"`
	Correction      *Correction            `json:"correction,omitempty"`
	Notes           []string               `json:"notes,omitempty"`
}

// ValidationSummary aggregates the per-category results of a run.
type ValidationSummary struct {
	Passed          []ValidationResult `json:"passed"`
	Warnings        []ValidationResult `json:"warnings"`
	Errors          []ValidationResult `json:"errors"`
	Corrections     []ValidationResult `json:"corrections"`
	ConfidenceScore float64            `json:"confidence_score"`
}
