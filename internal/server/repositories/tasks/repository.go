package tasks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, ownerID, id string) (*models.Task, error)
	List(ctx context.Context, ownerID string) ([]*models.Task, error)
	ListActive(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error)
	ListDeferred(ctx context.Context, ownerID string, now time.Time) ([]*models.Task, error)
	CountDeferred(ctx context.Context, ownerID string, now time.Time) (int, error)
	Update(ctx context.Context, task *models.Task) error
	SetDeferredUntil(ctx context.Context, ownerID, id string, until *time.Time) error
	Delete(ctx context.Context, ownerID, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
