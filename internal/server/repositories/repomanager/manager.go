package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/events"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/files"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/forum"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/habits"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/invites"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/messages"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/polls"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can
// use the same repositories against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Invites(db dbx.DBTX) invites.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Messages(db dbx.DBTX) messages.Repository
	Forum(db dbx.DBTX) forum.Repository
	Files(db dbx.DBTX) files.Repository
	Events(db dbx.DBTX) events.Repository
	Habits(db dbx.DBTX) habits.Repository
	Polls(db dbx.DBTX) polls.Repository
}
