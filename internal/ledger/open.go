package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrUnknownDriver = errors.New("ledger: unknown driver")
	ErrDSNRequired   = errors.New("ledger: dsn required")
)

// Config selects the ledger backend.
type Config struct {
	Driver string
	DSN    string
}

// NormalizeDriver maps driver aliases onto the supported names.
func NormalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return DriverMemory, nil
	case DriverSQLite, "sqlite3":
		return DriverSQLite, nil
	case DriverPostgres, "postgresql", "pg":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// Open connects to the configured SQL database and makes sure the records
// table exists.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	driver, err := NormalizeDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, ErrDSNRequired
	}

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("ledger: open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("ledger: open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %s has no database", ErrUnknownDriver, driver)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the records table when missing and adds columns that
// older tables lack.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*recordModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("ledger: create table: %w", err)
	}
	var existing []string
	if err := db.NewSelect().Model((*recordModel)(nil)).Column("fingerprint").Limit(1).Scan(ctx, &existing); err == nil || errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if _, err := db.NewAddColumn().Model((*recordModel)(nil)).ColumnExpr("fingerprint VARCHAR NOT NULL DEFAULT ''").Exec(ctx); err != nil {
		return fmt.Errorf("ledger: add fingerprint column: %w", err)
	}
	return nil
}

// NewRepository builds the repository for cfg. The returned close function
// releases the database connection, if any.
func NewRepository(ctx context.Context, cfg Config) (Repository, func() error, error) {
	driver, err := NormalizeDriver(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	if driver == DriverMemory {
		return NewMemoryRepository(), func() error { return nil }, nil
	}
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewBunRepository(db), db.Close, nil
}
