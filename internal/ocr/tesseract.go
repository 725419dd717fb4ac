package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Tesseract runs the tesseract CLI against a temporary copy of the image.
type Tesseract struct {
	Bin         string
	Lang        string
	TessdataDir string
	PSM         int
	OEM         int
	// TSVConfidence runs a second pass to read per-word confidence.
	TSVConfidence bool

	runner Runner
	logger *slog.Logger
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Recognize(ctx context.Context, data []byte) (Recognition, error) {
	f, err := os.CreateTemp("", "ticket-ocr-*.img")
	if err != nil {
		return Recognition{}, err
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil {
			t.logger.Warn("ocr.tmp.cleanup", "path", path, "err", err)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return Recognition{}, err
	}
	if err := f.Close(); err != nil {
		return Recognition{}, err
	}
	return t.recognizeFile(ctx, path)
}

func (t *Tesseract) recognizeFile(ctx context.Context, path string) (Recognition, error) {
	out, errb, err := t.runner.Run(ctx, t.Bin, t.args(path)...)
	if err != nil {
		return Recognition{Warnings: []string{string(errb)}}, fmt.Errorf("tesseract: %w", err)
	}
	rec := Recognition{Text: reBoxNoise.ReplaceAllString(string(out), "")}
	if t.TSVConfidence {
		conf, err := t.tsvConfidence(ctx, path)
		if err != nil {
			rec.Warnings = append(rec.Warnings, err.Error())
		} else {
			rec.Confidence = conf
		}
	}
	return rec, nil
}

func (t *Tesseract) args(path string, extra ...string) []string {
	args := []string{path, "stdout", "-l", t.Lang}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	if t.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.OEM))
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	return append(args, extra...)
}

// tsvConfidence returns the mean word confidence in 0..1.
func (t *Tesseract) tsvConfidence(ctx context.Context, path string) (float64, error) {
	out, _, err := t.runner.Run(ctx, t.Bin, t.args(path, "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w", err)
	}
	return meanTSVConfidence(string(out)), nil
}

func meanTSVConfidence(tsv string) float64 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		// conf is column 11; -1 marks non-word rows
		conf := cols[10]
		if conf == "" || strings.HasPrefix(conf, "-1") {
			continue
		}
		if v, err := strconv.ParseFloat(conf, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n / 100
}
