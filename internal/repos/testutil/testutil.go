package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/workpulse/workpulse-backend/internal/logger"
	"github.com/workpulse/workpulse-backend/internal/types"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	sqliteSeq int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB hands back a database for integration tests: the Postgres instance at
// TEST_POSTGRES_DSN when one is configured, else a fresh in-memory SQLite
// database per call. Pair it with Tx so tests never leak rows.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return postgresDB(tb, dsn)
	}
	return sqliteDB(tb)
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func postgresDB(tb testing.TB, dsn string) *gorm.DB {
	tb.Helper()
	pgOnce.Do(func() {
		var err error
		pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			pgErr = err
			return
		}
		if err := pgDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			pgErr = err
			return
		}
		pgErr = pgDB.AutoMigrate(
			&types.Activity{},
			&types.EnrichedFeature{},
			&types.BehavioralModel{},
			&types.BehavioralPattern{},
			&types.DetectedAnomaly{},
		)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

func sqliteDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:workpulse_test_%d?mode=memory&cache=shared", atomic.AddInt64(&sqliteSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open sqlite test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to unwrap sqlite test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		if err := db.Exec(stmt).Error; err != nil {
			tb.Fatalf("failed to create test schema: %v", err)
		}
	}
	return db
}

// sqliteSchema mirrors the production tables with portable column types.
// IDs are assigned client-side, so none of the Postgres defaults are needed.
var sqliteSchema = []string{
	`CREATE TABLE activity (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    details TEXT,
    created_at DATETIME
  )`,
	`CREATE TABLE enriched_feature (
    id TEXT PRIMARY KEY,
    activity_id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    app_category TEXT,
    website_category TEXT,
    project_context TEXT,
    is_context_switch BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME
  )`,
	`CREATE TABLE behavioral_model (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    parameters TEXT,
    silhouette_score REAL,
    num_clusters INTEGER NOT NULL,
    model_blob BLOB,
    created_at DATETIME,
    updated_at DATETIME
  )`,
	`CREATE TABLE behavioral_pattern (
    id TEXT PRIMARY KEY,
    model_id TEXT NOT NULL,
    pattern_label INTEGER NOT NULL,
    size INTEGER NOT NULL,
    centroid TEXT,
    representative_activities TEXT,
    temporal_distribution TEXT,
    activity_distribution TEXT,
    context_summary TEXT,
    category TEXT,
    label TEXT,
    created_at DATETIME,
    UNIQUE (model_id, pattern_label)
  )`,
	`CREATE TABLE detected_anomaly (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    anomaly_type TEXT NOT NULL,
    category_type TEXT NOT NULL,
    category_value TEXT NOT NULL,
    description TEXT,
    severity_score REAL NOT NULL,
    related_activity_ids TEXT,
    status TEXT NOT NULL DEFAULT 'new',
    created_at DATETIME,
    updated_at DATETIME
  )`,
}
