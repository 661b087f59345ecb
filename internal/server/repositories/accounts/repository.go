package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByResetToken(ctx context.Context, token string) (*models.Account, error)
	SetResetTicket(ctx context.Context, email string, ticket *models.ResetTicket) error
	ConsumeResetTicket(ctx context.Context, token, passwordHash string, now time.Time) error
	Delete(ctx context.Context, id string) error
}
