// Package repomanager provides the concrete RepositoryManager for the
// supported SQL dialects, wiring together repository constructors and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/migrations"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/events"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/files"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/forum"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/habits"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/invites"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/messages"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/polls"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repository implementations and
// exposes a schema migration hook for its dialect. The repositories use
// only SQL understood by both postgres and SQLite.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// Invites returns an invites.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Invites(db dbx.DBTX) invites.Repository {
	return invites.NewSQLRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Forum(db dbx.DBTX) forum.Repository {
	return forum.NewSQLRepository(db)
}

// Files returns a files.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Events(db dbx.DBTX) events.Repository {
	return events.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Habits(db dbx.DBTX) habits.Repository {
	return habits.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Polls(db dbx.DBTX) polls.Repository {
	return polls.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations of the manager's
// dialect and runs them against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(m.dialect)); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, string(m.dialect)); err != nil {
		return err
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) (RepositoryManager, error) {
	switch dialect {
	case dbx.DialectPostgres, dbx.DialectSQLite:
		return &SQLRepositoryManager{dialect: dialect}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
