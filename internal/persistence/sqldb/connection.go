// Package sqldb implements the persistence repositories on top of
// database/sql and sqlx. SQLite (modernc.org/sqlite) and PostgreSQL
// (pgx stdlib) share the same queries; placeholders are rebound per dialect.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/nutriagenda/internal/persistence"
)

const (
	// DriverSQLite selects the pure-Go SQLite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres selects PostgreSQL through the pgx stdlib adapter.
	DriverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
	sqlx.BindDriver(DriverPostgres, sqlx.DOLLAR)
}

// Config describes how to reach the database.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// DefaultConfig returns a configuration for a local SQLite file.
func DefaultConfig(dsn string) Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
}

// NormalizeDriver maps user-facing driver names onto registered database/sql drivers.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("sqldb: unsupported driver %q", driver)
	}
}

// ConnectionPool manages database connections with transaction support.
type ConnectionPool struct {
	db     *sqlx.DB
	driver string
}

// NewConnectionPool opens a connection pool and verifies it with a ping.
func NewConnectionPool(ctx context.Context, config Config) (*ConnectionPool, error) {
	driver, err := NormalizeDriver(config.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.DSN) == "" {
		return nil, errors.New("sqldb: dsn is required")
	}

	dsn := config.DSN
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn, config.BusyTimeout)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", NewErrorMapper().MapError(err))
	}

	return &ConnectionPool{db: db, driver: driver}, nil
}

// NewConnectionPoolFromDB wraps an existing handle. Used by tests with sqlmock.
func NewConnectionPoolFromDB(db *sql.DB, driver string) *ConnectionPool {
	return &ConnectionPool{db: sqlx.NewDb(db, driver), driver: driver}
}

// sqliteDSN appends the pragmas every connection needs unless the caller
// already supplied query parameters.
func sqliteDSN(dsn string, busyTimeout time.Duration) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		dsn, busyTimeout.Milliseconds())
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sqlx.Tx) error

// WithTransaction executes fn within a database transaction. The transaction
// is rolled back when fn returns an error or panics.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryHelper runs queries written with '?' placeholders against either dialect.
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a new query helper.
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

// Get scans a single row into dest.
func (qh *QueryHelper) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return qh.pool.db.GetContext(ctx, dest, qh.pool.db.Rebind(query), args...)
}

// Select scans all rows into dest.
func (qh *QueryHelper) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return qh.pool.db.SelectContext(ctx, dest, qh.pool.db.Rebind(query), args...)
}

// Exec executes a query that doesn't return rows.
func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return qh.pool.db.ExecContext(ctx, qh.pool.db.Rebind(query), args...)
}

// GetTx scans a single row into dest within a transaction.
func (qh *QueryHelper) GetTx(ctx context.Context, tx *sqlx.Tx, dest interface{}, query string, args ...interface{}) error {
	return tx.GetContext(ctx, dest, tx.Rebind(query), args...)
}

// ExecTx executes a query that doesn't return rows within a transaction.
func (qh *QueryHelper) ExecTx(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (sql.Result, error) {
	return tx.ExecContext(ctx, tx.Rebind(query), args...)
}

// ErrorMapper maps driver errors to persistence layer errors.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation   = "23505"
	pgNotNullViolation  = "23502"
	pgCheckViolation    = "23514"
	pgForeignKeyFailure = "23503"
)

// MapError maps driver-specific errors to persistence layer errors.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pgErr.ConstraintName)
		case pgNotNullViolation, pgCheckViolation, pgForeignKeyFailure:
			return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.Message)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed", "PRIMARY KEY constraint failed"}) {
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	}

	if containsAny(errStr, []string{"NOT NULL constraint failed", "CHECK constraint failed", "FOREIGN KEY constraint failed"}) {
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}

	if containsAny(errStr, []string{"database is locked", "database locked", "connection refused", "sql: database is closed", "bad connection"}) {
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	return err
}

func containsAny(s string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
