package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/monicap360/move-around-tms/internal/common"
	repo "github.com/monicap360/move-around-tms/internal/repository"
)

// ConnectDB opens the configured database and applies the schema.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, migrate bool, logger *slog.Logger) (*repo.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	if err := PingDB(ctx, db, logger, cfg.DialTimeout); err != nil {
		db.Close(logger)
		return nil, err
	}
	if migrate {
		if err := repo.Migrate(ctx, db, logger); err != nil {
			db.Close(logger)
			return nil, err
		}
	}
	logger.Info("successfully connected to database", "driver", db.Dialect())
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	if err := db.HealthCheck(ctx, timeout, logger); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
