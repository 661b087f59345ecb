package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/telemetry"
)

// DeletionService removes an account together with everything it owns.
type DeletionService struct {
	base
}

func NewDeletionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *DeletionService {
	return &DeletionService{base: newBase(db, m, cfg, log, "deletion")}
}

// DeleteAccount deletes the account's tasks, projects, preferences and then
// the account itself inside one transaction. Either all of it is gone or
// none of it is. A missing account yields common.ErrNotFound.
//
// Once started, the transaction is not tied to the caller's cancellation: a
// client disconnect cannot leave it half applied. It is still bounded by the
// database timeout.
func (s *DeletionService) DeleteAccount(ctx context.Context, accountID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "DeletionService.DeleteAccount")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	txCtx, cancel := dbx.WithTimeout(context.WithoutCancel(ctx), s.dbTimeout)
	defer cancel()

	var removedTasks, removedProjects int64
	err = dbx.WithTx(txCtx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		if removedTasks, txErr = s.repomanager.Tasks(tx).DeleteByOwner(ctx, accountID); txErr != nil {
			return fmt.Errorf("delete tasks: %w", txErr)
		}
		if removedProjects, txErr = s.repomanager.Projects(tx).DeleteByOwner(ctx, accountID); txErr != nil {
			return fmt.Errorf("delete projects: %w", txErr)
		}
		if _, txErr = s.repomanager.Preferences(tx).DeleteByOwner(ctx, accountID); txErr != nil {
			return fmt.Errorf("delete preferences: %w", txErr)
		}
		return s.repomanager.Accounts(tx).Delete(ctx, accountID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		s.log.Error(ctx, "account deletion rolled back", "account_id", accountID, "error", err)
		return internalError(err)
	}

	s.log.Info(ctx, "account deleted", "account_id", accountID, "tasks", removedTasks, "projects", removedProjects)
	return nil
}
