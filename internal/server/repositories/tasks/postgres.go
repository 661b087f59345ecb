// Package tasks provides PostgreSQL-backed storage for todo items, including
// the deferral column used for snoozing. Whether a task is active is always
// decided by comparing deferred_until with the caller's clock at query time.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

const selectColumns = `SELECT id, owner_id, project_id, title, priority, duration_minutes, created_at, deferred_until FROM tasks`

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts task and fills in its generated ID and creation time.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (owner_id, project_id, title, priority, duration_minutes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID, nullString(task.ProjectID), task.Title, string(task.Priority), task.DurationMinutes,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrAccountGone
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// Get returns the task with id owned by ownerID, or common.ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE owner_id = $1 AND id = $2`, ownerID, id)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// List returns every task of ownerID regardless of deferral.
func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]*models.Task, error) {
	return r.query(ctx, selectColumns+` WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
}

// ListActive returns tasks that are not deferred past now.
func (r *PostgresRepository) ListActive(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error) {
	return r.query(ctx, selectColumns+`
		WHERE owner_id = $1 AND (deferred_until IS NULL OR deferred_until <= $2)
		ORDER BY created_at, id`, ownerID, now)
}

// ListDeferred returns tasks whose deferral ends after now, soonest first.
func (r *PostgresRepository) ListDeferred(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error) {
	return r.query(ctx, selectColumns+`
		WHERE owner_id = $1 AND deferred_until > $2
		ORDER BY deferred_until, id`, ownerID, now)
}

// CountDeferred counts the tasks ListDeferred would return.
func (r *PostgresRepository) CountDeferred(ctx context.Context, ownerID string, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE owner_id = $1 AND deferred_until > $2`, ownerID, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Update writes the editable fields of task. Returns common.ErrNotFound when
// the task does not exist or belongs to someone else.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query :=
		`UPDATE tasks SET title = $1, priority = $2, duration_minutes = $3, project_id = $4
		 WHERE owner_id = $5 AND id = $6
		 `

	res, err := r.db.ExecContext(ctx, query,
		task.Title, string(task.Priority), task.DurationMinutes, nullString(task.ProjectID), task.OwnerID, task.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrNotFound)
}

// SetDeferredUntil overwrites the deferral of a task; nil clears it.
func (r *PostgresRepository) SetDeferredUntil(ctx context.Context, ownerID, id string, until *time.Time) error {
	var v sql.NullTime
	if until != nil {
		v = sql.NullTime{Time: *until, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET deferred_until = $1 WHERE owner_id = $2 AND id = $3`, v, ownerID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrNotFound)
}

// Delete removes one task of ownerID.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrNotFound)
}

// DeleteByOwner removes every task of ownerID and reports how many went.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	var (
		t        models.Task
		project  sql.NullString
		priority string
		deferred sql.NullTime
	)

	if err := s.Scan(&t.ID, &t.OwnerID, &project, &t.Title, &priority, &t.DurationMinutes, &t.CreatedAt, &deferred); err != nil {
		return nil, err
	}

	t.Priority = models.Priority(priority)
	if project.Valid {
		t.ProjectID = &project.String
	}
	if deferred.Valid {
		t.DeferredUntil = &deferred.Time
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
