// Package repo implements the pooled transactional data-access layer for the
// marketplace, backed by GORM. This file owns the pool lifecycle: building
// the shared handle once from a single source of truth for the endpoint,
// applying pool bounds, and classifying build failures.
package repo

import (
	"context"
	"os"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/errs"
	"github.com/tbourn/go-market-backend/internal/perf"
)

// EnvDatabaseURL names the environment variable consulted when EstablishPool
// is called without an explicit endpoint. Test fixtures use EnvTestDatabaseURL.
const (
	EnvDatabaseURL     = "DATABASE_URL"
	EnvTestDatabaseURL = "DATABASE_URL_TEST"
)

// PoolConfig bounds the shared connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig returns the pool bounds used when callers pass a zero
// PoolConfig.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// EstablishPool builds the shared bounded connection pool for dsn.
//
// When dsn is empty the endpoint is read from DATABASE_URL; if that is also
// unset the call fails fast with a configuration error naming the variable —
// it never falls back to a guessed endpoint. Postgres-looking DSNs use the
// Postgres driver; anything else is treated as a SQLite path/URI (the pure-Go
// driver used by all tests).
//
// The returned *gorm.DB is safe to share across concurrent callers; it is
// built once per process (or per test fixture) and cloned, never
// reconstructed, by each operation. One performance event is emitted per
// attempt with the endpoint sanitized before it reaches any log detail.
func EstablishPool(dsn string, pc PoolConfig) (*gorm.DB, error) {
	start := time.Now()

	if dsn == "" {
		dsn = os.Getenv(EnvDatabaseURL)
		if dsn == "" {
			perf.Emit("establish_pool", start, false, EnvDatabaseURL+" not found in environment")
			return nil, errs.Config("%s not found in environment", EnvDatabaseURL)
		}
	}
	if pc == (PoolConfig{}) {
		pc = DefaultPoolConfig()
	}

	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		perf.Emit("establish_pool", start, false, "failed to create pool for "+SanitizeDSN(dsn)+": "+err.Error())
		return nil, errs.Connection("failed to create database connection pool", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		perf.Emit("establish_pool", start, false, "failed to access pool for "+SanitizeDSN(dsn)+": "+err.Error())
		return nil, errs.Connection("failed to access underlying connection pool", err)
	}
	sqlDB.SetMaxOpenConns(pc.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pc.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(pc.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(pc.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		perf.Emit("establish_pool", start, false, "failed to reach "+SanitizeDSN(dsn)+": "+err.Error())
		return nil, errs.Connection("database unreachable", err)
	}

	if isSQLiteDSN(dsn) {
		// PRAGMAs for sane concurrent behavior on the file-based engine.
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		db.Exec("PRAGMA foreign_keys=ON;")
		db.Exec("PRAGMA busy_timeout=5000;")
	}

	perf.Emit("establish_pool", start, true, "pool created successfully")
	return db, nil
}

// AutoMigrate creates or updates the schema for all domain models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Asset{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Idempotency{},
	)
}

// SanitizeDSN masks an endpoint string for logging: every byte except '@',
// ':' and ASCII letters is replaced by '*', which hides credentials, hosts,
// and ports while keeping the overall shape recognizable.
func SanitizeDSN(dsn string) string {
	out := []byte(dsn)
	for i, c := range out {
		switch {
		case c == '@' || c == ':':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			out[i] = '*'
		}
	}
	return string(out)
}

// dialectorFor picks the GORM driver from the DSN shape.
func dialectorFor(dsn string) gorm.Dialector {
	if isPostgresDSN(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func isSQLiteDSN(dsn string) bool { return !isPostgresDSN(dsn) }
