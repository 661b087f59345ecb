package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/preferences"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
)

// RepositoryManager binds repositories to a DBTX, so the same service code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Projects(db dbx.DBTX) projects.Repository
	Preferences(db dbx.DBTX) preferences.Repository
}
