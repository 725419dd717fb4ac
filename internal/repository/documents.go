package repository

import (
	"context"
	stdsql "database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *entity.DriverDocument) error
	Get(ctx context.Context, id uuid.UUID) (*entity.DriverDocument, error)
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	return &documentRepo{db: db, logger: logger}
}

var documentColumns = []string{
	"id", "driver_id", "doc_type", "full_name", "license_number", "state", "issue_date", "expiration_date",
	"image_url", "ocr_text", "ocr_confidence", "auto_matched", "match_confidence", "status", "created_at",
}

func (r *documentRepo) Create(ctx context.Context, d *entity.DriverDocument) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Status == "" {
		d.Status = constants.StatusPendingReview
	}
	q, args := r.db.builder().Insert("driver_documents").
		Columns(documentColumns...).
		Values(d.ID, nullStr(d.DriverID), string(d.DocType), nullStr(d.FullName), nullStr(d.LicenseNumber), nullStr(d.State),
			nullTime(d.IssueDate), nullTime(d.ExpirationDate), d.ImageRef, d.OCRText, d.OCRConfidence, d.AutoMatched,
			nullFloat(d.MatchConfidence), string(d.Status), d.CreatedAt.UTC()).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to insert driver document", "document_id", d.ID, "error", err)
		return common.Database("insert driver document", err)
	}
	return nil
}

func (r *documentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.DriverDocument, error) {
	b := r.db.builder()
	q, args := b.Select(documentColumns...).From(b.Table("driver_documents")).Where(entsql.EQ("id", id)).Query()
	var found *entity.DriverDocument
	err := r.db.query(ctx, q, args, func(scan func(...any) error) error {
		var (
			d                            entity.DriverDocument
			driver, name, license, state stdsql.NullString
			issued, expires              stdsql.NullTime
			matchConf                    stdsql.NullFloat64
			docType, status              string
		)
		if err := scan(&d.ID, &driver, &docType, &name, &license, &state, &issued, &expires,
			&d.ImageRef, &d.OCRText, &d.OCRConfidence, &d.AutoMatched, &matchConf, &status, &d.CreatedAt); err != nil {
			return err
		}
		d.DriverID, d.FullName, d.LicenseNumber, d.State = strOf(driver), strOf(name), strOf(license), strOf(state)
		d.IssueDate, d.ExpirationDate = timeOf(issued), timeOf(expires)
		d.MatchConfidence = floatOf(matchConf)
		d.DocType = constants.DocType(docType)
		d.Status = constants.ReviewStatus(status)
		d.CreatedAt = d.CreatedAt.UTC()
		found = &d
		return nil
	})
	if err != nil {
		return nil, common.Database("load driver document", err)
	}
	if found == nil {
		return nil, common.NotFound("driver document not found")
	}
	return found, nil
}
