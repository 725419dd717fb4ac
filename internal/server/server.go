package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/ingest"
	"github.com/monicap360/move-around-tms/internal/metrics"
	"github.com/monicap360/move-around-tms/internal/pipeline"
)

const (
	headerRequestID = "X-Request-ID"
	headerOrgID     = "X-Organization-ID"
)

type Submitter interface {
	Process(ctx context.Context, sub pipeline.Submission) (pipeline.Outcome, error)
}

type TicketValidator interface {
	ValidateTicket(ctx context.Context, ticketID uuid.UUID) (entity.ValidationSummary, error)
}

type Exporter interface {
	ExportReviewXLSX(ctx context.Context, status constants.ReviewStatus, from, to *time.Time) ([]byte, error)
}

type DirectoryIngestor interface {
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]ingest.IngestionResult, ingest.DirStats, error)
}

// Options wires the handlers. Nil collaborators leave their routes unregistered.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.PipelineMetrics
	CORSOrigins    []string
	RequestTimeout time.Duration

	Processor Submitter
	Validator TicketValidator
	Scorer    pipeline.FieldScorer
	// Scores persists results of /api/confidence/score; nil when the scorer is remote.
	Scores   pipeline.ScoreWriter
	Exporter Exporter
	Ingestor DirectoryIngestor
	Health   func(ctx context.Context) error
}

type handlers struct {
	Options
	logger *slog.Logger
}

// NewRouter builds the gin engine with middleware and every configured route.
func NewRouter(o Options) *gin.Engine {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	h := &handlers{Options: o, logger: o.Logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.requestContext())
	r.Use(h.accessLog())
	r.Use(cors.New(corsConfig(o.CORSOrigins)))

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(o.Metrics.Handler()))

	api := r.Group("/api")
	if o.Processor != nil {
		api.POST("/ocr/upload", h.upload)
	}
	if o.Validator != nil {
		api.POST("/tickets/:id/validate", h.validateTicket)
	}
	if o.Exporter != nil {
		api.GET("/tickets/export.xlsx", h.exportTickets)
	}
	if o.Scorer != nil {
		api.POST("/confidence/score", h.scoreField)
	}
	if o.Ingestor != nil {
		api.POST("/ingest/directory", h.ingestDirectory)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AddAllowHeaders("Authorization", headerRequestID, headerOrgID)
	cfg.AddExposeHeaders("Content-Length", headerRequestID)
	return cfg
}

// requestContext attaches the request id, tenant and a scoped logger to the request context.
func (h *handlers) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		ctx := common.WithRequestID(c.Request.Context(), rid)
		logger := h.logger.With("request_id", rid)
		if org := c.GetHeader(headerOrgID); org != "" {
			ctx = common.WithOrganizationID(ctx, org)
			logger = logger.With("organization_id", org)
		}
		ctx = common.WithLogger(ctx, logger)
		if h.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.RequestTimeout)
			defer cancel()
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *handlers) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		route := c.FullPath()
		h.Metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), elapsed)
		common.LoggerFromContext(c.Request.Context(), h.logger).Info("http.request",
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", elapsed.Milliseconds(),
		)
	}
}

func (h *handlers) healthz(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError renders {error} with the status mapped from the error class.
func (h *handlers) writeError(c *gin.Context, event string, err error) {
	code := common.HTTPStatus(err)
	logger := common.LoggerFromContext(c.Request.Context(), h.logger)
	if code >= http.StatusInternalServerError {
		logger.Error(event, "err", err)
	} else {
		logger.Warn(event, "err", err)
	}
	c.JSON(code, gin.H{"error": common.PublicMessage(err)})
}

// bindError turns a binding failure into an InvalidInput naming each failed field.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return common.InvalidInput(err.Error())
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return common.InvalidInput("invalid fields: " + strings.Join(fields, ", "))
}

func orgFromRequest(c *gin.Context, body string) *string {
	if body != "" {
		return &body
	}
	if org := common.OrganizationIDFromContext(c.Request.Context()); org != "" {
		return &org
	}
	return nil
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
