package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a *sql.DB. It doubles as the goose
// dialect and the migrations sub-directory.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// pingAttempts and pingDelay bound how long Open waits for the database to
// come up (containers often start the app before postgres accepts connections).
var (
	pingAttempts uint = 5
	pingDelay         = 500 * time.Millisecond
)

// ParseDSN maps a connection string to a driver name, a driver DSN and the
// dialect. postgres:// and postgresql:// URLs go to pgx; everything else is
// treated as a SQLite location (sqlite:///relative.db, sqlite:////abs.db,
// file:..., or a bare path).
func ParseDSN(dsn string) (driver string, driverDSN string, dialect Dialect) {
	s := strings.TrimSpace(dsn)

	// SQLAlchemy-style driver suffixes are common in .env files.
	s = strings.Replace(s, "postgresql+asyncpg://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+asyncpg://", "postgres://", 1)
	s = strings.Replace(s, "postgresql+psycopg2://", "postgresql://", 1)

	if strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") {
		return "pgx", s, DialectPostgres
	}

	switch {
	case strings.HasPrefix(s, "sqlite:///"):
		s = "file:" + strings.TrimPrefix(s, "sqlite:///")
	case strings.HasPrefix(s, "sqlite://"):
		s = "file:" + strings.TrimPrefix(s, "sqlite://")
	case strings.HasPrefix(s, "file:"):
	default:
		s = "file:" + s
	}

	sep := "?"
	if strings.Contains(s, "?") {
		sep = "&"
	}
	return "sqlite", s + sep + sqlitePragmas, DialectSQLite
}

// Open opens the database behind dsn and waits until it answers a ping.
// SQLite handles are limited to one connection so that write transactions
// are serialized by database/sql instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	driver, driverDSN, dialect := ParseDSN(dsn)

	db, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, "", fmt.Errorf("db open error: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(time.Hour)
	}

	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(pingAttempts),
		retry.Delay(pingDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("db ping error: %w", err)
	}

	return db, dialect, nil
}
