package pipeline

import (
	"context"
	"log/slog"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/extract"
)

// LowConfidenceThreshold marks OCR output worth a closer look by the reviewer.
const LowConfidenceThreshold = 0.6

type OCRStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewOCRStage(tx extract.TextExtractor, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRStage{TextExtractor: tx, Logger: logger}
}

// Run extracts text from the submitted image. Errors are returned unchanged so
// the caller can map upstream failures.
func (s *OCRStage) Run(ctx context.Context, src extract.ImageSource) (extract.Result, error) {
	logger := common.LoggerFromContext(ctx, s.Logger)
	res, err := s.TextExtractor.Extract(ctx, src)
	if err != nil {
		logger.Error("pipeline.ocr.failed", "image", src.Ref(), "err", err)
		return res, err
	}
	if res.Confidence < LowConfidenceThreshold {
		logger.Warn("pipeline.ocr.low_confidence", "confidence", res.Confidence, "chars", len(res.Text))
	}
	logger.Info("pipeline.ocr.ok",
		"provider", res.Provider,
		"method", res.Method,
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
