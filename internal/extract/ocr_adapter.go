package extract

import (
	"context"

	"github.com/monicap360/move-around-tms/internal/ocr"
)

type OCRAdapter struct {
	e *ocr.Extractor
}

func NewOCRAdapter(e *ocr.Extractor) *OCRAdapter {
	return &OCRAdapter{e: e}
}

func (a *OCRAdapter) Extract(ctx context.Context, src ImageSource) (Result, error) {
	if err := src.Validate(); err != nil {
		return Result{}, err
	}
	if src.Path != "" {
		return a.ExtractFile(ctx, src.Path)
	}
	return fromOCR(a.e.Extract(ctx, src.URL, src.Data))
}

// ExtractFile reads a file from disk, used by drop-folder ingestion and the CLI.
func (a *OCRAdapter) ExtractFile(ctx context.Context, path string) (Result, error) {
	return fromOCR(a.e.ExtractFile(ctx, path))
}

func fromOCR(r ocr.ExtractionResult, err error) (Result, error) {
	return Result{
		Text:       r.Text,
		Confidence: r.Confidence,
		Provider:   r.Provider,
		Method:     r.Method,
		Pages:      r.Pages,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
	}, err
}
