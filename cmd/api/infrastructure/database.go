package infrastructure

import (
	"fmt"
	"os"
	"time"

	"user-pool-service/internal/adapter/db/gormdb"
	"user-pool-service/internal/config"
	"user-pool-service/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dialector picks the GORM driver for the configured database.
func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.DSN()
	switch cfg.Driver {
	case config.DriverPostgres:
		return pgdriver.Open(dsn), nil
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDatabase opens the user store, sizes its connection pool and
// applies the schema when auto migration is enabled.
func NewDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	l.Info("connecting to datastore",
		zap.String("driver", cfg.DB.Driver),
		zap.String("url", cfg.DB.RedactedDSN()),
		zap.String("db_host_env", os.Getenv("DB_HOST")),
	)

	dial, err := dialector(cfg.DB)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.NewGormLogger(l, logger.GormConfig{
		Level:      cfg.Logger.DBLevel,
		AppLevel:   cfg.Logger.Level,
		SlowQuery:  time.Duration(cfg.Logger.SlowQuerySeconds * float64(time.Second)),
		HideParams: cfg.Logger.DBHideParams,
	})

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DB.ConnMaxIdleTime) * time.Second)

	if cfg.DB.AutoMigrate {
		if err := gormdb.Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	l.Info("database connected successfully",
		zap.String("driver", cfg.DB.Driver),
		zap.Int("max_open_conns", cfg.DB.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.DB.ConnMaxLifetime),
		zap.Int("conn_max_idle_time_seconds", cfg.DB.ConnMaxIdleTime),
		zap.Bool("auto_migrate", cfg.DB.AutoMigrate),
	)

	return db, nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
