package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/monicap360/move-around-tms/internal/app"
	"github.com/monicap360/move-around-tms/internal/async"
	"github.com/monicap360/move-around-tms/internal/common"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.LogLevel, true)
	slog.SetDefault(logger)

	if cfg.Database.DSN == "" {
		logger.Error("missing DB_URL environment variable")
		os.Exit(2)
	}
	if cfg.Scoring.RedisURL == "" {
		logger.Error("missing REDIS_URL environment variable")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.WithoutOCR(), app.WithDispatch(app.DispatchNone))
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	consumer, err := async.NewConsumer(a.AsynqConfig(), a.Scoring, a.Metrics, logger)
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if addr := os.Getenv("WORKER_METRICS_ADDR"); addr != "" {
		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
		r.GET("/healthz", func(c *gin.Context) {
			if err := a.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		metricsSrv = &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics serve error", "error", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- consumer.Run() }()
	logger.Info("scoring worker started", "queue", cfg.Scoring.Queue, "concurrency", cfg.Scoring.Workers)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		consumer.Shutdown()
	case err := <-errc:
		if err != nil {
			logger.Error("consumer stopped", "error", err)
		}
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}
