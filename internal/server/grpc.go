package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthService is the name reported for the ticket API on the gRPC health service.
const HealthService = "tickets.v1.TicketService"

// NewGRPCServer returns a gRPC server exposing the standard health service and reflection.
func NewGRPCServer(logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(unaryLogger(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s)
	return s, hs
}

// WatchHealth flips the serving status with the result of check every interval until ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, check func(context.Context) error, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	last := healthpb.HealthCheckResponse_SERVING
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			st := healthpb.HealthCheckResponse_SERVING
			if err := check(ctx); err != nil {
				st = healthpb.HealthCheckResponse_NOT_SERVING
				if last == healthpb.HealthCheckResponse_SERVING {
					logger.Warn("health.not_serving", "err", err)
				}
			} else if last != st {
				logger.Info("health.serving")
			}
			last = st
			hs.SetServingStatus("", st)
			hs.SetServingStatus(HealthService, st)
		}
	}
}

func unaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc.request", "method", info.FullMethod, "elapsed_ms", time.Since(start).Milliseconds(), "err", err)
		return resp, err
	}
}
