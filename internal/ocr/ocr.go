package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/httpclient"
)

type Config struct {
	Provider      string // azure | tesseract
	AzureEndpoint string
	AzureKey      string

	Tesseract           string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang       string // default "eng"
	TessdataDir         string
	EnableTSVConfidence bool
	PSM                 int // 6 suits a uniform block of text
	OEM                 int

	// Enhance runs the image through grayscale/contrast/sharpen before recognition.
	Enhance         bool
	DownloadTimeout time.Duration

	Pdftotext     string
	Pdftoppm      string
	DPI           int
	MaxPages      int
	HeicConverter string // heif-convert | magick | sips
}

// Recognition is a single provider call's output.
type Recognition struct {
	Text       string
	Confidence float64 // 0..1, zero when the provider reports none
	Warnings   []string
}

// Recognizer turns image bytes into text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, data []byte) (Recognition, error)
}

// URLRecognizer is implemented by providers that can fetch an image themselves.
type URLRecognizer interface {
	RecognizeURL(ctx context.Context, url string) (Recognition, error)
}

type ExtractionResult struct {
	Text       string
	Confidence float64
	Provider   string
	Method     string // "image-ocr" | "url-ocr" | "pdf-text" | "pdf-ocr"
	Pages      int
	Duration   time.Duration
	Warnings   []string
}

type Extractor struct {
	cfg        Config
	recognizer Recognizer
	runner     Runner
	http       *http.Client
	logger     *slog.Logger
}

type Option func(*Extractor)

func WithRunner(r Runner) Option           { return func(e *Extractor) { e.runner = r } }
func WithRecognizer(r Recognizer) Option   { return func(e *Extractor) { e.recognizer = r } }
func WithHTTPClient(c *http.Client) Option { return func(e *Extractor) { e.http = c } }

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 20 * time.Second
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	if e.http == nil {
		e.http = &http.Client{Timeout: cfg.DownloadTimeout}
	}
	if e.recognizer == nil {
		switch cfg.Provider {
		case "", "azure":
			if cfg.AzureEndpoint == "" || cfg.AzureKey == "" {
				return nil, errors.New("azure ocr requires endpoint and key")
			}
			e.recognizer = NewAzureVision(cfg.AzureEndpoint, cfg.AzureKey, logger)
		case "tesseract":
			e.recognizer = e.tesseract()
		default:
			return nil, fmt.Errorf("unknown ocr provider %q", cfg.Provider)
		}
	}
	return e, nil
}

func (e *Extractor) tesseract() *Tesseract {
	return &Tesseract{
		Bin:           e.cfg.Tesseract,
		Lang:          e.cfg.TesseractLang,
		TessdataDir:   e.cfg.TessdataDir,
		PSM:           e.cfg.PSM,
		OEM:           e.cfg.OEM,
		TSVConfidence: e.cfg.EnableTSVConfidence,
		runner:        e.runner,
		logger:        e.logger,
	}
}

// Extract recognizes text from exactly one of imageURL or data.
// Provider and download failures are returned as upstream errors.
func (e *Extractor) Extract(ctx context.Context, imageURL string, data []byte) (ExtractionResult, error) {
	start := time.Now()
	if (imageURL == "") == (len(data) == 0) {
		return ExtractionResult{}, common.InvalidInput("exactly one of image url or image data is required")
	}
	res := ExtractionResult{Provider: e.recognizer.Name(), Method: "image-ocr", Pages: 1}

	var (
		rec Recognition
		err error
	)
	if ur, ok := e.recognizer.(URLRecognizer); ok && imageURL != "" && !e.cfg.Enhance {
		res.Method = "url-ocr"
		rec, err = ur.RecognizeURL(ctx, imageURL)
	} else {
		if imageURL != "" {
			if data, err = httpclient.Fetch(ctx, e.http, imageURL); err != nil {
				e.logger.Error("ocr.download.failed", "url", imageURL, "err", err)
				return res, common.Upstream("image download failed", err)
			}
		}
		rec, err = e.recognizeBytes(ctx, data, &res)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.failed", "provider", res.Provider, "method", res.Method, "elapsed_ms", res.Duration.Milliseconds(), "err", err)
		return res, common.Upstream("text extraction failed", err)
	}
	e.finish(&res, rec)
	return res, nil
}

func (e *Extractor) recognizeBytes(ctx context.Context, data []byte, res *ExtractionResult) (Recognition, error) {
	if e.cfg.Enhance {
		if enhanced, err := Enhance(data); err != nil {
			res.Warnings = append(res.Warnings, "enhance: "+err.Error())
		} else {
			data = enhanced
		}
	}
	return e.recognizer.Recognize(ctx, data)
}

func (e *Extractor) finish(res *ExtractionResult, rec Recognition) {
	res.Text = Normalize(rec.Text)
	res.Confidence = blendConfidence(rec.Confidence, heuristicConfidence(res.Text))
	res.Warnings = append(res.Warnings, rec.Warnings...)
	e.logger.Info("ocr.ok",
		"provider", res.Provider,
		"method", res.Method,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds())
}
