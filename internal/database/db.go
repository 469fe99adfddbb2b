package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"todo-api/internal/config"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

// LogIDSequence backs the client log-id sequence when Redis is not configured.
const LogIDSequence = "next_log_id"

var (
	pool *sql.DB
	once sync.Once

	orm     *gorm.DB
	ormOnce sync.Once
)

// DB returns the global database connection pool (initialized on first use).
func DB(ctx context.Context) *sql.DB {
	once.Do(func() {
		cfg := config.Get()
		if cfg.DatabaseURL == "" {
			logger.Error(ctx, "DATABASE_URL is not set")
			return
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error(ctx, "Failed to open database", "error", err)
			return
		}
		db.SetMaxOpenConns(cfg.DBPoolSize)
		db.SetMaxIdleConns(cfg.DBPoolSize / 2)
		pool = db
		logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	})
	return pool
}

// ORM returns the global GORM handle sharing the DB pool (initialized on first use).
func ORM(ctx context.Context) *gorm.DB {
	ormOnce.Do(func() {
		sqlDB := DB(ctx)
		if sqlDB == nil {
			return
		}
		db, err := Open(sqlDB)
		if err != nil {
			logger.Error(ctx, "Failed to open ORM", "error", err)
			return
		}
		orm = db
	})
	return orm
}

// Open wraps an existing PostgreSQL pool in GORM.
func Open(sqlDB *sql.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), Options())
}

// Options is the GORM configuration shared by the service and its tests.
func Options() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	}
}

// Models lists every table owned by the service.
func Models() []interface{} {
	return []interface{}{&models.Todo{}, &models.User{}, &models.UserToken{}}
}

// MigrateOrCreateSchema creates or upgrades the tables and the log-id sequence.
func MigrateOrCreateSchema(ctx context.Context) error {
	db := ORM(ctx)
	if db == nil {
		return errors.New("database not available")
	}
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec("CREATE SEQUENCE IF NOT EXISTS " + LogIDSequence).Error; err != nil {
		return err
	}
	logger.Info(ctx, "Database schema ready")
	return nil
}
