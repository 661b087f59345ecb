// Package preferences provides PostgreSQL-backed storage for per-account
// task defaults. Each account has at most one row.
package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

// PostgresRepository implements preferences storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts prefs. A second row for the same owner is a conflict.
func (r *PostgresRepository) Create(ctx context.Context, prefs *models.Preferences) (*models.Preferences, error) {
	query :=
		`INSERT INTO preferences (owner_id, default_duration, default_priority, default_sorting, default_ordering)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		prefs.OwnerID, prefs.DefaultDuration, string(prefs.DefaultPriority),
		string(prefs.DefaultSorting), string(prefs.DefaultOrdering),
	).Scan(&prefs.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: preferences already exist", common.ErrConflict)
		}
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrAccountGone
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return prefs, nil
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Preferences, error) {
	query :=
		`SELECT id, owner_id, default_duration, default_priority, default_sorting, default_ordering
		 FROM preferences WHERE owner_id = $1
		 `

	var (
		p                           models.Preferences
		priority, sorting, ordering string
	)
	err := r.db.QueryRowContext(ctx, query, ownerID).
		Scan(&p.ID, &p.OwnerID, &p.DefaultDuration, &priority, &sorting, &ordering)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.DefaultPriority = models.Priority(priority)
	p.DefaultSorting = models.Sorting(sorting)
	p.DefaultOrdering = models.Ordering(ordering)
	return &p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, prefs *models.Preferences) error {
	query :=
		`UPDATE preferences
		 SET default_duration = $1, default_priority = $2, default_sorting = $3, default_ordering = $4
		 WHERE owner_id = $5
		 `

	res, err := r.db.ExecContext(ctx, query,
		prefs.DefaultDuration, string(prefs.DefaultPriority), string(prefs.DefaultSorting),
		string(prefs.DefaultOrdering), prefs.OwnerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrNotFound)
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
