package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
)

// DriverDocument is an HR/compliance artifact awaiting review.
type DriverDocument struct {
	ID              uuid.UUID              `json:"id"`
	DriverID        *string                `json:"driver_id,omitempty"`
	DocType         constants.DocType      `json:"doc_type"`
	FullName        *string                `json:"full_name,omitempty"`
	LicenseNumber   *string                `json:"license_number,omitempty"`
	State           *string                `json:"state,omitempty"`
	IssueDate       *time.Time             `json:"issue_date,omitempty"`
	ExpirationDate  *time.Time             `json:"expiration_date,omitempty"`
	ImageRef        string                 `json:"image_url"`
	OCRText         string                 `json:"ocr_text"`
	OCRConfidence   float64                `json:"ocr_confidence"`
	AutoMatched     bool                   `json:"auto_matched"`
	MatchConfidence *float64               `json:"match_confidence,omitempty"`
	Status          constants.ReviewStatus `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
}
