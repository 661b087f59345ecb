package preferences

import (
	"context"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, prefs *models.Preferences) (*models.Preferences, error)
	GetByOwner(ctx context.Context, ownerID string) (*models.Preferences, error)
	Update(ctx context.Context, prefs *models.Preferences) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
