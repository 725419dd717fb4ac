package pipeline

import (
	"context"
	"log/slog"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/extract"
	"github.com/monicap360/move-around-tms/internal/parsefields"
)

type HRStage struct {
	Drivers   DriverDirectory
	Documents DocumentWriter
	Logger    *slog.Logger
}

func NewHRStage(drivers DriverDirectory, docs DocumentWriter, logger *slog.Logger) *HRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &HRStage{Drivers: drivers, Documents: docs, Logger: logger}
}

// Run extracts compliance fields, matches the driver by license and name, and inserts the document.
func (s *HRStage) Run(ctx context.Context, sub Submission, res extract.Result) (*HROutcome, error) {
	logger := common.LoggerFromContext(ctx, s.Logger)
	fields := parsefields.ExtractHRFields(res.Text)

	nameHint := sub.FullNameHint
	if nameHint == "" && fields.FullName != nil {
		nameHint = *fields.FullName
	}
	licenseHint := ""
	if fields.LicenseNumber != nil {
		licenseHint = *fields.LicenseNumber
	}
	match, autoMatched, err := resolveDriver(ctx, s.Drivers, sub, res.Text, nameHint, licenseHint)
	if err != nil {
		return nil, err
	}

	doc := entity.DriverDocument{
		DocType:        fields.DocType,
		FullName:       fields.FullName,
		LicenseNumber:  fields.LicenseNumber,
		State:          fields.State,
		IssueDate:      fields.IssueDate,
		ExpirationDate: fields.ExpirationDate,
		ImageRef:       sub.Source.Ref(),
		OCRText:        res.Text,
		OCRConfidence:  res.Confidence,
		AutoMatched:    autoMatched,
		Status:         constants.StatusPendingReview,
	}
	if match != nil {
		doc.DriverID = &match.ID
		doc.MatchConfidence = &match.Confidence
	}
	if err := s.Documents.Create(ctx, &doc); err != nil {
		logger.Error("pipeline.hr.insert_failed", "err", err)
		return nil, err
	}
	logger.Info("pipeline.hr.created", "document_id", doc.ID, "doc_type", doc.DocType, "driver_id", doc.DriverID)
	return &HROutcome{
		DocType:        doc.DocType,
		ExpirationDate: doc.ExpirationDate,
		MatchedDriver:  match,
		Inserted:       doc,
	}, nil
}
