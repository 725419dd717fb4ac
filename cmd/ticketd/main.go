package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/monicap360/move-around-tms/internal/app"
	"github.com/monicap360/move-around-tms/internal/common"
	"github.com/monicap360/move-around-tms/internal/ingest"
	"github.com/monicap360/move-around-tms/internal/server"
)

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.LogLevel, true)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.WithMigrate())
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	grpcSrv, hs := server.NewGRPCServer(logger)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go server.WatchHealth(ctx, hs, a.Health, 15*time.Second, logger)
		go func() {
			logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
			}
		}()
	}

	if len(cfg.Ingest.WatchDirs) > 0 && a.Ingestor != nil {
		go func() {
			err := a.Ingestor.Watch(ctx, ingest.WatchConfig{
				Roots:       cfg.Ingest.WatchDirs,
				InitialScan: true,
				Debounce:    cfg.Ingest.Debounce,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()
	a.Close(shutdownCtx)
}
