package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/enraizado/internal/dbx"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/activations"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/guests"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/enraizado/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can run several writes as one unit.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Activations(db dbx.DBTX) activations.Repository
	Guests(db dbx.DBTX) guests.Repository
}
