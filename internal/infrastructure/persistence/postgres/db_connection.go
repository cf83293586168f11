// Package postgres provides read-only access to the repository database,
// which this service only consults for resource-policy lookups.
package postgres

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/reposphere/staleweb/internal/config"
	"github.com/reposphere/staleweb/pkg/errors"
	"github.com/reposphere/staleweb/pkg/logger"
)

// NewDBConnection opens a connection pool against the repository database and
// verifies it with an initial ping.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.ErrInvalidConfig
	}

	log.Info(ctx, "connecting to repository database",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
	)

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.ErrDatabaseOperation.WithError(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrDatabaseOperation.WithError(err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.ErrDatabaseOperation.WithError(err)
	}

	return db, nil
}
