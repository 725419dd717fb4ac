package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/extract"
	"github.com/monicap360/move-around-tms/internal/pipeline"
)

// FSIngestor submits scanned tickets and documents from the local filesystem.
type FSIngestor struct {
	submit Submitter
	logger *slog.Logger
	seen   *cache.Cache

	// OrganizationID scopes every submission from this ingestor.
	OrganizationID *string
}

type FSOption func(*FSIngestor)

func WithOrganization(orgID string) FSOption {
	return func(i *FSIngestor) {
		if orgID != "" {
			i.OrganizationID = &orgID
		}
	}
}

// WithDedupTTL sets how long a file hash is remembered.
func WithDedupTTL(ttl time.Duration) FSOption {
	return func(i *FSIngestor) { i.seen = cache.New(ttl, ttl) }
}

func NewFSIngestor(submit Submitter, logger *slog.Logger, opts ...FSOption) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	i := &FSIngestor{submit: submit, logger: logger, seen: cache.New(24*time.Hour, time.Hour)}
	for _, o := range opts {
		o(i)
	}
	return i
}

// IngestPath hashes a file and submits it unless the same content was seen recently.
func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !constants.IsSupportedFile(ext) {
		return out, common.InvalidInput(fmt.Sprintf("unsupported or missing extension: %q", ext))
	}

	sum, err := hashFile(abs)
	if err != nil {
		return out, err
	}
	out.HashHex = sum
	if _, dup := i.seen.Get(sum); dup {
		out.Deduplicated = true
		i.logger.Info("ingest.deduplicated", "path", abs, "sha256", sum)
		return out, nil
	}

	res, err := i.submit.Process(ctx, pipeline.Submission{
		Source:         extract.ImageSource{Path: abs},
		OrganizationID: i.OrganizationID,
	})
	if err != nil {
		i.logger.Error("ingest.failed", "path", abs, "err", err)
		return out, err
	}
	i.seen.SetDefault(sum, abs)

	out.Kind = string(res.Kind)
	switch {
	case res.Ticket != nil:
		out.RecordID = res.Ticket.Ticket.ID.String()
	case res.HR != nil:
		out.RecordID = res.HR.Inserted.ID.String()
	}
	i.logger.Info("ingest.ok", "path", abs, "kind", out.Kind, "record_id", out.RecordID)
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and ingests every
// supported file. Per-file failures are collected, not returned.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.IsSupportedFile(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	i.logger.Info("ingest.directory.done",
		"root", root, "scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
