package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
)

// ConfidenceScore is a baseline-deviation score for one field of one entity.
type ConfidenceScore struct {
	ID               uuid.UUID              `json:"id"`
	EntityType       string                 `json:"entity_type"`
	EntityID         string                 `json:"entity_id"`
	FieldName        string                 `json:"field_name"`
	Score            float64                `json:"score"`
	Reason           string                 `json:"reason"`
	BaselineType     constants.BaselineType `json:"baseline_type"`
	BaselineValue    float64                `json:"baseline_value"`
	ActualValue      float64                `json:"actual_value"`
	DeviationPercent float64                `json:"deviation_percentage"`
	CreatedAt        time.Time              `json:"created_at"`
}
