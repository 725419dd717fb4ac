package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
)

// schema uses {{uuid}}, {{json}} and {{ts}} placeholders resolved per dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		vertical TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		organization_id TEXT,
		name TEXT NOT NULL,
		email_domain TEXT,
		patterns {{json}},
		pay_rate NUMERIC(10,4),
		bill_rate NUMERIC(10,4),
		material_rates {{json}},
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		organization_id TEXT,
		name TEXT NOT NULL,
		license_number TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS driver_aliases (
		driver_id TEXT NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
		alias TEXT NOT NULL,
		confidence_boost DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (driver_id, alias)
	)`,
	`CREATE TABLE IF NOT EXISTS trucks (
		id TEXT PRIMARY KEY,
		capacity_tons DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS validation_rules (
		id TEXT PRIMARY KEY,
		organization_id TEXT,
		rule_type TEXT NOT NULL,
		name TEXT NOT NULL,
		rule_logic {{json}},
		threshold DOUBLE PRECISION,
		severity TEXT NOT NULL DEFAULT 'warning',
		auto_correct BOOLEAN NOT NULL DEFAULT FALSE,
		project_specific BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS geofences (
		id TEXT PRIMARY KEY,
		organization_id TEXT,
		project_id TEXT,
		fence_type TEXT NOT NULL,
		center_lat DOUBLE PRECISION NOT NULL,
		center_lng DOUBLE PRECISION NOT NULL,
		radius_miles DOUBLE PRECISION,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id {{uuid}} PRIMARY KEY,
		organization_id TEXT,
		project_id TEXT,
		partner_id TEXT,
		driver_id TEXT,
		fleet_id TEXT,
		truck_id TEXT,
		ocr_driver_name TEXT,
		match_confidence DOUBLE PRECISION,
		auto_matched BOOLEAN NOT NULL DEFAULT FALSE,
		ticket_number TEXT,
		material TEXT,
		quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit_type TEXT NOT NULL,
		pay_rate NUMERIC(10,4) NOT NULL,
		bill_rate NUMERIC(10,4) NOT NULL,
		total_pay NUMERIC(14,4) NOT NULL,
		total_bill NUMERIC(14,4) NOT NULL,
		total_profit NUMERIC(14,4) NOT NULL,
		ticket_date {{ts}},
		status TEXT NOT NULL,
		ocr_text TEXT NOT NULL,
		ocr_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		image_url TEXT NOT NULL,
		pickup_lat DOUBLE PRECISION,
		pickup_lng DOUBLE PRECISION,
		dump_lat DOUBLE PRECISION,
		dump_lng DOUBLE PRECISION,
		distance_miles DOUBLE PRECISION,
		load_weight_tons DOUBLE PRECISION,
		cubic_yards DOUBLE PRECISION,
		load_time {{ts}},
		dump_time {{ts}},
		waiting_minutes DOUBLE PRECISION,
		has_photo BOOLEAN NOT NULL DEFAULT FALSE,
		has_signature BOOLEAN NOT NULL DEFAULT FALSE,
		weight_verified BOOLEAN NOT NULL DEFAULT FALSE,
		late_submission {{json}},
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_driver_created ON tickets (driver_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_partner_created ON tickets (partner_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status)`,
	`CREATE TABLE IF NOT EXISTS driver_documents (
		id {{uuid}} PRIMARY KEY,
		driver_id TEXT,
		doc_type TEXT NOT NULL,
		full_name TEXT,
		license_number TEXT,
		state TEXT,
		issue_date {{ts}},
		expiration_date {{ts}},
		image_url TEXT NOT NULL,
		ocr_text TEXT NOT NULL,
		ocr_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		auto_matched BOOLEAN NOT NULL DEFAULT FALSE,
		match_confidence DOUBLE PRECISION,
		status TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_validations (
		ticket_id {{uuid}} PRIMARY KEY REFERENCES tickets(id) ON DELETE CASCADE,
		summary {{json}} NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		validated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS confidence_scores (
		id {{uuid}} PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		field_name TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		reason TEXT NOT NULL,
		baseline_type TEXT NOT NULL,
		baseline_value DOUBLE PRECISION NOT NULL,
		actual_value DOUBLE PRECISION NOT NULL,
		deviation_percentage DOUBLE PRECISION NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_confidence_scores_entity ON confidence_scores (entity_type, entity_id)`,
}

func typeReplacer(d string) *strings.Replacer {
	if d == dialect.Postgres {
		return strings.NewReplacer("{{uuid}}", "UUID", "{{json}}", "JSONB", "{{ts}}", "TIMESTAMPTZ")
	}
	// modernc parses TIMESTAMP-declared text columns back into time.Time
	return strings.NewReplacer("{{uuid}}", "TEXT", "{{json}}", "TEXT", "{{ts}}", "TIMESTAMP")
}

// Migrate creates the tables the pipeline reads and writes. It is idempotent.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	r := typeReplacer(db.dialect)
	for i, stmt := range schema {
		if _, err := db.exec(ctx, r.Replace(stmt), []any{}); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	logger.Info("database schema up to date", "statements", len(schema))
	return nil
}
