package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/monicap360/move-around-tms/constants"
)

// LateSubmission carries the optional late-submission workflow fields.
type LateSubmission struct {
	MissingTicket bool   `json:"missingTicket,omitempty"`
	TargetWeek    string `json:"targetWeek,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Ticket represents one hauling trip record.
type Ticket struct {
	ID              uuid.UUID              `json:"id"`
	OrganizationID  *string                `json:"organization_id,omitempty"`
	ProjectID       *string                `json:"project_id,omitempty"`
	PartnerID       *string                `json:"partner_id,omitempty"`
	DriverID        *string                `json:"driver_id,omitempty"`
	FleetID         *string                `json:"fleet_id,omitempty"`
	TruckID         *string                `json:"truck_id,omitempty"`
	OCRDriverName   *string                `json:"ocr_driver_name,omitempty"`
	MatchConfidence *float64               `json:"match_confidence,omitempty"`
	AutoMatched     bool                   `json:"auto_matched"`
	TicketNumber    *string                `json:"ticket_number,omitempty"`
	Material        *string                `json:"material,omitempty"`
	Quantity        float64                `json:"quantity"`
	UnitType        string                 `json:"unit_type"`
	PayRate         decimal.Decimal        `json:"pay_rate"`
	BillRate        decimal.Decimal        `json:"bill_rate"`
	TotalPay        decimal.Decimal        `json:"total_pay"`
	TotalBill       decimal.Decimal        `json:"total_bill"`
	TotalProfit     decimal.Decimal        `json:"total_profit"`
	TicketDate      *time.Time             `json:"ticket_date,omitempty"`
	Status          constants.ReviewStatus `json:"status"`
	OCRText         string                 `json:"ocr_text"`
	OCRConfidence   float64                `json:"ocr_confidence"`
	ImageRef        string                 `json:"image_url"`
	Pickup          *GeoPoint              `json:"pickup,omitempty"`
	Dump            *GeoPoint              `json:"dump,omitempty"`
	DistanceMiles   *float64               `json:"distance_miles,omitempty"`
	LoadWeightTons  *float64               `json:"load_weight,omitempty"`
	CubicYards      *float64               `json:"cubic_yards,omitempty"`
	LoadTime        *time.Time             `json:"load_time,omitempty"`
	DumpTime        *time.Time             `json:"dump_time,omitempty"`
	WaitingMinutes  *float64               `json:"waiting_minutes,omitempty"`
	HasPhoto        bool                   `json:"has_photo"`
	HasSignature    bool                   `json:"has_signature"`
	WeightVerified  bool                   `json:"weight_verified"`
	Late            *LateSubmission        `json:"late_submission,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}
