package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/notify"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// ResetService issues and redeems single-use password reset tokens. An
// account holds at most one pending token; issuing a new one replaces it.
type ResetService struct {
	base
	hasher   *auth.PasswordHasher
	notifier notify.Notifier
	ttl      time.Duration
}

func NewResetService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger,
	hasher *auth.PasswordHasher, notifier notify.Notifier) *ResetService {
	return &ResetService{
		base:     newBase(db, m, cfg, log, "reset"),
		hasher:   hasher,
		notifier: notifier,
		ttl:      cfg.ResetTokenTTL,
	}
}

// WithClock replaces the service time source. Used by tests.
func (s *ResetService) WithClock(now func() time.Time) *ResetService {
	s.now = now
	return s
}

// RequestReset stores a new reset token on the account registered with email
// and hands it to the notifier. Unknown emails yield common.ErrNotFound.
// Delivery failures are logged, not returned: the token is already stored.
func (s *ResetService) RequestReset(ctx context.Context, email string) (_ string, err error) {
	ctx, finish := s.start(ctx, "ResetService.RequestReset")
	defer func() { finish(err) }()

	email = normalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	token, err := common.MakeRandHexString(common.ResetTokenSize)
	if err != nil {
		return "", internalError(err)
	}

	ticket := &models.ResetTicket{Token: token, ExpiresAt: s.now().Add(s.ttl)}
	if err = s.repomanager.Accounts(s.db).SetResetTicket(ctx, email, ticket); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		return "", internalError(err)
	}

	if nerr := s.notifier.SendPasswordReset(ctx, email, token); nerr != nil {
		s.log.Warn(ctx, "reset notification failed", "email", email, "error", nerr)
	}

	return token, nil
}

// ConsumeReset sets newPassword on the account holding token and clears the
// token in the same statement. Unknown, already used and expired tokens all
// yield common.ErrInvalidOrExpired, and are rejected before the password is
// hashed.
func (s *ResetService) ConsumeReset(ctx context.Context, token, newPassword string) (err error) {
	ctx, finish := s.start(ctx, "ResetService.ConsumeReset")
	defer func() { finish(err) }()

	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: reset token and password are required", common.ErrValidation)
	}

	repo := s.repomanager.Accounts(s.db)

	acc, err := repo.GetByResetToken(ctx, token)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return common.ErrInvalidOrExpired
	case err != nil:
		return internalError(err)
	case !acc.Reset.Usable(s.now()):
		return common.ErrInvalidOrExpired
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internalError(err)
	}

	// The conditional update still decides a race between two redemptions.
	err = repo.ConsumeResetTicket(ctx, token, digest, s.now())
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpired) {
			return common.ErrInvalidOrExpired
		}
		return internalError(err)
	}

	s.log.Info(ctx, "password reset completed")
	return nil
}
