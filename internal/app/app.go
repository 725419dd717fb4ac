// Package app wires configuration, storage and the pipeline for the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/confidence"
	"github.com/monicap360/move-around-tms/internal/export"
	"github.com/monicap360/move-around-tms/internal/extract"
	"github.com/monicap360/move-around-tms/internal/httpclient"
	"github.com/monicap360/move-around-tms/internal/ingest"
	"github.com/monicap360/move-around-tms/internal/metrics"
	"github.com/monicap360/move-around-tms/internal/ocr"
	"github.com/monicap360/move-around-tms/internal/pipeline"
	repo "github.com/monicap360/move-around-tms/internal/repository"
	"github.com/monicap360/move-around-tms/internal/server"
	"github.com/monicap360/move-around-tms/internal/validation"
)

// NewLogger builds the root logger. Services log JSON, the CLI logs text.
func NewLogger(w io.Writer, level string, json bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Dispatch selects how the processor hands off scoring tasks.
type Dispatch int

const (
	// DispatchConfigured follows SCORING_MODE.
	DispatchConfigured Dispatch = iota
	// DispatchNone skips scoring entirely (worker, offline CLI runs).
	DispatchNone
)

type buildOptions struct {
	withOCR  bool
	migrate  bool
	dispatch Dispatch
	db       *repo.DB
	ocrOpts  []ocr.Option
}

type Option func(*buildOptions)

// WithoutOCR skips building the OCR client for commands that never read images.
func WithoutOCR() Option { return func(o *buildOptions) { o.withOCR = false } }

// WithMigrate applies the schema after connecting.
func WithMigrate() Option { return func(o *buildOptions) { o.migrate = true } }

func WithDispatch(d Dispatch) Option { return func(o *buildOptions) { o.dispatch = d } }

// WithOCROptions passes options through to the OCR extractor.
func WithOCROptions(opts ...ocr.Option) Option {
	return func(o *buildOptions) { o.ocrOpts = append(o.ocrOpts, opts...) }
}

// WithDB reuses an already open database.
func WithDB(db *repo.DB) Option { return func(o *buildOptions) { o.db = db } }

// App holds every long-lived collaborator.
type App struct {
	Config   *common.Config
	Logger   *slog.Logger
	DB       *repo.DB
	Registry *prometheus.Registry
	Metrics  *metrics.PipelineMetrics

	Partners  repo.PartnerRepository
	Drivers   repo.DriverRepository
	Tickets   repo.TicketRepository
	Documents repo.DocumentRepository
	Rules     repo.RuleRepository
	Geofences repo.GeofenceRepository
	Trucks    repo.TruckRepository
	Orgs      repo.OrganizationRepository
	Scores    repo.ScoreRepository

	Validation *validation.Service
	Scorer     pipeline.FieldScorer
	// ScoreWriter is nil when a remote scorer persists its own results.
	ScoreWriter pipeline.ScoreWriter
	Scoring     *pipeline.ScoringHandler
	OCR         *extract.OCRAdapter
	Processor   *pipeline.Processor
	Exporter    *export.Service
	Ingestor    *ingest.FSIngestor

	queue    *async.ProcessorQueue
	enqueuer *async.AsynqDispatcher
	redis    *redis.Client
	ownsDB   bool
}

// Router builds the HTTP API over this app's collaborators.
func (a *App) Router() http.Handler {
	return server.NewRouter(server.Options{
		Logger:         a.Logger,
		Metrics:        a.Metrics,
		CORSOrigins:    a.Config.Server.CORSOrigins,
		RequestTimeout: a.Config.Server.RequestTimeout,
		Processor:      processorOrNil(a.Processor),
		Validator:      a.Validation,
		Scorer:         a.Scorer,
		Scores:         a.ScoreWriter,
		Exporter:       a.Exporter,
		Ingestor:       ingestorOrNil(a.Ingestor),
		Health:         a.Health,
	})
}

// typed nils would register routes that panic
func processorOrNil(p *pipeline.Processor) server.Submitter {
	if p == nil {
		return nil
	}
	return p
}

func ingestorOrNil(i *ingest.FSIngestor) server.DirectoryIngestor {
	if i == nil {
		return nil
	}
	return i
}

// Build connects to the database and assembles the pipeline described by cfg.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := buildOptions{withOCR: true}
	for _, fn := range opts {
		fn(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewPipelineMetrics(a.Registry)
	if err != nil {
		return nil, err
	}
	a.Metrics = m

	if o.db != nil {
		a.DB = o.db
	} else {
		a.DB, err = server.ConnectDB(ctx, cfg.Database, o.migrate, logger)
		if err != nil {
			return nil, err
		}
		a.ownsDB = true
	}
	a.repositories()

	if err := a.scoring(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Exporter = export.NewService(a.Tickets, logger)

	if !o.withOCR {
		return a, nil
	}
	if err := a.pipeline(o.dispatch, o.ocrOpts); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) repositories() {
	db, l := a.DB, a.Logger
	a.Partners = repo.NewPartnerRepository(db, l)
	a.Drivers = repo.NewDriverRepository(db, l)
	a.Tickets = repo.NewTicketRepository(db, l)
	a.Documents = repo.NewDocumentRepository(db, l)
	a.Rules = repo.NewRuleRepository(db, l)
	a.Geofences = repo.NewGeofenceRepository(db, l)
	a.Trucks = repo.NewTruckRepository(db, l)
	a.Orgs = repo.NewOrganizationRepository(db, l)
	a.Scores = repo.NewScoreRepository(db, l)
}

// scoring builds validation and the baseline scorer, local or remote.
func (a *App) scoring() error {
	cfg := a.Config.Scoring
	engine := validation.NewEngine(a.Logger, validation.WithObserver(a.Metrics))
	a.Validation = validation.NewService(a.Logger, engine, a.Rules, a.Geofences, a.Trucks, a.Tickets)

	if cfg.RemoteURL != "" {
		a.Scorer = confidence.NewRemoteScorer(cfg.RemoteURL, &http.Client{Timeout: httpclient.DefaultTimeout}, a.Logger)
		a.Logger.Info("scoring.remote", "url", cfg.RemoteURL)
	} else {
		var cache confidence.BaselineCache = confidence.NewMemoryCache(cfg.CacheTTL)
		if cfg.Mode == "asynq" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("parse REDIS_URL: %w", err)
			}
			a.redis = redis.NewClient(opt)
			cache = confidence.NewRedisCache(a.redis, cfg.CacheTTL, a.Logger)
		}
		scorer := confidence.NewScorer(a.Logger, repo.NewBaselineRepository(a.DB, a.Logger),
			confidence.WithCache(cache), confidence.WithDefaultWindow(cfg.DefaultWindow))
		a.Scorer = confidence.NewVerticalScorer(scorer, a.Orgs)
		a.ScoreWriter = a.Scores
	}
	a.Scoring = pipeline.NewScoringHandler(a.Logger, a.Validation, a.Tickets, a.Scorer, a.ScoreWriter, a.Metrics)
	return nil
}

func (a *App) pipeline(d Dispatch, ocrOpts []ocr.Option) error {
	c := a.Config.OCR
	extractor, err := ocr.NewExtractor(ocr.Config{
		Provider:        c.Provider,
		AzureEndpoint:   c.AzureEndpoint,
		AzureKey:        c.AzureKey,
		Tesseract:       c.TesseractBin,
		TesseractLang:   c.TesseractLang,
		TessdataDir:     c.TessdataDir,
		Enhance:         c.Enhance,
		DownloadTimeout: c.DownloadTimeout,
		HeicConverter:   c.HeicConverter,
	}, a.Logger, ocrOpts...)
	if err != nil {
		return err
	}
	a.OCR = extract.NewOCRAdapter(extractor)

	opts := []pipeline.Option{pipeline.WithMetrics(a.Metrics)}
	if d == DispatchConfigured {
		dispatcher, err := a.dispatcher()
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithDispatcher(dispatcher))
	}
	a.Processor = pipeline.NewProcessor(a.Logger,
		pipeline.NewOCRStage(a.OCR, a.Logger),
		pipeline.NewTicketStage(a.Partners, a.Drivers, a.Tickets, a.Logger),
		pipeline.NewHRStage(a.Drivers, a.Documents, a.Logger),
		opts...,
	)
	a.Ingestor = ingest.NewFSIngestor(a.Processor, a.Logger,
		ingest.WithOrganization(a.Config.Ingest.OrganizationID),
		ingest.WithDedupTTL(a.Config.Ingest.DedupTTL))
	return nil
}

func (a *App) dispatcher() (async.Dispatcher, error) {
	cfg := a.Config.Scoring
	if cfg.Mode == "asynq" {
		d, err := async.NewAsynqDispatcher(a.AsynqConfig(), a.Logger)
		if err != nil {
			return nil, err
		}
		a.enqueuer = d
		return d, nil
	}
	a.queue = async.NewProcessorQueue(a.Scoring, a.Logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.QueueSize),
		async.WithProcessTimeout(cfg.TaskTimeout),
		async.WithRetry(cfg.MaxAttempts, time.Second),
		async.WithRecorder(a.Metrics),
	)
	return a.queue, nil
}

// AsynqConfig maps the scoring settings onto the asynq client and server.
func (a *App) AsynqConfig() async.AsynqConfig {
	cfg := a.Config.Scoring
	retries := cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return async.AsynqConfig{
		RedisURL:    cfg.RedisURL,
		Queue:       cfg.Queue,
		Concurrency: cfg.Workers,
		MaxRetry:    retries,
		Timeout:     cfg.TaskTimeout,
	}
}

// Health pings the database with the configured dial timeout.
func (a *App) Health(ctx context.Context) error {
	return a.DB.HealthCheck(ctx, a.Config.Database.DialTimeout, a.Logger)
}

// DrainScoring waits for in-process scoring tasks to finish. Later dispatches are rejected.
func (a *App) DrainScoring(ctx context.Context) {
	if a.queue != nil {
		a.queue.Shutdown(ctx)
		a.queue = nil
	}
}

// Close drains in-process scoring before closing connections.
func (a *App) Close(ctx context.Context) {
	a.DrainScoring(ctx)
	if a.enqueuer != nil {
		if err := a.enqueuer.Close(); err != nil {
			a.Logger.Error("failed to close asynq client", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
		}
	}
	if a.ownsDB {
		a.DB.Close(a.Logger)
	}
}
