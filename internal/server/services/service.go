// Package services contains server-side business logic: account lifecycle,
// password resets, account deletion, task snoozing and the task, project and
// preferences operations behind the REST API.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// base carries what every service needs: the pool, the repository factory,
// a logger, a tracer, the clock and the per-operation database timeout.
type base struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	tracer      trace.Tracer
	now         func() time.Time
	dbTimeout   time.Duration
}

func newBase(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger, module string) base {
	if log == nil {
		log = logging.Nop()
	}
	return base{
		db:          db,
		repomanager: m,
		log:         log.With("module", module),
		tracer:      telemetry.Tracer("todokeeper/services"),
		now:         time.Now,
		dbTimeout:   cfg.DBTimeout,
	}
}

// start opens a span named op and bounds ctx by the database timeout. The
// returned finish func records err on the span and releases both.
func (b *base) start(ctx context.Context, op string) (context.Context, func(err error)) {
	ctx, span := b.tracer.Start(ctx, op)
	ctx, cancel := dbx.WithTimeout(ctx, b.dbTimeout)
	return ctx, func(err error) {
		telemetry.RecordError(span, err)
		cancel()
		span.End()
	}
}

// internalError tags err as a server-side failure while keeping the cause
// available to errors.Is and to logs.
func internalError(err error) error {
	return fmt.Errorf("%w: %w", common.ErrInternal, err)
}

// writeError passes ErrAccountGone through so the caller sees a 401 instead
// of a 500, and tags everything else as internal.
func writeError(err error) error {
	if errors.Is(err, common.ErrAccountGone) {
		return err
	}
	return internalError(err)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
