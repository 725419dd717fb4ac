package entity

import (
	"encoding/json"

	"github.com/monicap360/move-around-tms/constants"
)

// ValidationRule is read-only configuration loaded per validation run.
type ValidationRule struct {
	ID              string             `json:"rule_id"`
	OrganizationID  *string            `json:"organization_id,omitempty"`
	RuleType        constants.RuleType `json:"rule_type"`
	Name            string             `json:"name"`
	RuleLogic       json.RawMessage    `json:"rule_logic,omitempty"`
	Threshold       *float64           `json:"threshold,omitempty"`
	Severity        constants.Severity `json:"severity"`
	AutoCorrect     bool               `json:"auto_correct"`
	ProjectSpecific bool               `json:"project_specific"`
	Active          bool               `json:"active"`
}

// Geofence is a circular zone a pickup or dump point should fall within.
type Geofence struct {
	ID             string              `json:"id"`
	OrganizationID *string             `json:"organization_id,omitempty"`
	ProjectID      *string             `json:"project_id,omitempty"`
	FenceType      constants.FenceType `json:"fence_type"`
	Center         GeoPoint            `json:"center"`
	RadiusMiles    *float64            `json:"radius_miles,omitempty"`
	Active         bool                `json:"active"`
}

// Truck only carries what the weight rule needs.
type Truck struct {
	ID           string   `json:"id"`
	CapacityTons *float64 `json:"capacity_tons,omitempty"`
}

// Organization carries the tenant's declared industry vertical.
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Vertical string `json:"vertical"`
}
