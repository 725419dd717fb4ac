package ingest

import (
	"context"

	"github.com/monicap360/move-around-tms/internal/pipeline"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string `json:"source_path"`
	HashHex      string `json:"sha256"`
	Kind         string `json:"kind,omitempty"`
	RecordID     string `json:"record_id,omitempty"`
	Deduplicated bool   `json:"deduplicated"`
	Err          string `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}

// Submitter runs one submission through OCR, classification and storage.
type Submitter interface {
	Process(ctx context.Context, sub pipeline.Submission) (pipeline.Outcome, error)
}

// Ingestor is the behavior the CLI and the watcher depend on.
type Ingestor interface {
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
