package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
)

// ExtractFile recognizes an image, HEIC photo or PDF e-ticket from disk.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := filepath.Ext(path)
	switch {
	case constants.IsPDFExt(ext):
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		if err != nil {
			return res, common.Upstream("pdf extraction failed", err)
		}
		e.finish(&res, Recognition{Text: res.Text})
		return res, nil
	case constants.IsHEICExt(ext):
		png, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			e.logger.Error("ocr.heic.failed", "path", path, "err", err)
			return ExtractionResult{}, common.Upstream("heic conversion failed", err)
		}
		path = png
	case !constants.IsAllowedImage(ext):
		return ExtractionResult{}, common.InvalidInput(fmt.Sprintf("unsupported file type %q", ext))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	return e.Extract(ctx, "", data)
}

// extractPDF prefers the embedded text layer and rasterizes pages only when it is empty.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{Provider: e.recognizer.Name(), Method: "pdf-text"}
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err == nil && strings.TrimSpace(string(out)) != "" {
		res.Text = string(out)
		res.Pages = 1 + strings.Count(strings.TrimRight(res.Text, "\f"), "\f")
		return res, nil
	}
	if err != nil {
		res.Warnings = append(res.Warnings, "pdftotext: "+string(errb))
	}

	res.Method = "pdf-ocr"
	tmpDir, err := os.MkdirTemp("", "ticket-pdf-*")
	if err != nil {
		return res, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tmp.cleanup", "path", tmpDir, "err", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix); err != nil {
		res.Warnings = append(res.Warnings, string(errb))
		return res, fmt.Errorf("pdftoppm: %w", err)
	}
	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return res, fmt.Errorf("pdftoppm rendered no pages")
	}

	var b strings.Builder
	for _, page := range pages {
		data, err := os.ReadFile(page)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		rec, err := e.recognizeBytes(ctx, data, &res)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(rec.Text)
		res.Warnings = append(res.Warnings, rec.Warnings...)
	}
	res.Text = b.String()
	res.Pages = len(pages)
	return res, nil
}

// convertHEICtoPNG converts a phone photo to a temporary PNG. Call cleanup to remove it.
func convertHEICtoPNG(ctx context.Context, r Runner, converter, in string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "ticket-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }
	out := filepath.Join(tmpDir, "page.png")

	var args []string
	switch converter {
	case "heif-convert", "magick":
		args = []string{in, out}
	case "sips":
		args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return "", cleanup, fmt.Errorf("heic not supported: set the converter to heif-convert, magick or sips")
	}
	if _, errb, err := r.Run(ctx, converter, args...); err != nil {
		return "", cleanup, fmt.Errorf("%s failed: %w: %s", converter, err, clip(errb, 512))
	}
	if _, err := os.Stat(out); err != nil {
		return "", cleanup, fmt.Errorf("heic conversion produced no output: %w", err)
	}
	return out, cleanup, nil
}
