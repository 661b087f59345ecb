package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/revocation"
)

// Session is a freshly issued bearer token.
type Session struct {
	AccountID string
	Token     string
	ExpiresAt time.Time
}

// AccountService handles registration, login, profile lookup, token
// authentication and logout.
type AccountService struct {
	base
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenIssuer
	denylist revocation.Denylist

	// dummyHash is compared against when the email is unknown so that both
	// login failure paths cost one bcrypt comparison.
	dummyHash string
}

// NewAccountService constructs an AccountService. A nil denylist disables
// logout revocation.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger,
	hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, denylist revocation.Denylist) *AccountService {
	if denylist == nil {
		denylist = revocation.NopDenylist{}
	}
	s := &AccountService{
		base:     newBase(db, m, cfg, log, "accounts"),
		hasher:   hasher,
		tokens:   tokens,
		denylist: denylist,
	}
	if h, err := hasher.Hash(string(common.GenerateRandByteArray(16))); err == nil {
		s.dummyHash = h
	}
	return s
}

// Register creates an account with default preferences in one transaction
// and returns a session for it.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (_ *Session, err error) {
	ctx, finish := s.start(ctx, "AccountService.Register")
	defer func() { finish(err) }()

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", common.ErrValidation)
	}

	_, err = s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrNotFound):
		return nil, internalError(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internalError(err)
	}

	var account *models.Account
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var txErr error
		account, txErr = s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			Username:     username,
			Email:        email,
			PasswordHash: digest,
		})
		if txErr != nil {
			return txErr
		}
		_, txErr = s.repomanager.Preferences(tx).Create(ctx, models.DefaultPreferences(account.ID))
		return txErr
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, internalError(err)
	}

	session, err := s.issue(account.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return session, nil
}

// Login checks email and password. Unknown email and wrong password are
// reported identically as common.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (_ *Session, err error) {
	ctx, finish := s.start(ctx, "AccountService.Login")
	defer func() { finish(err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, internalError(err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(account.ID)
}

// Me returns the profile of accountID.
func (s *AccountService) Me(ctx context.Context, accountID string) (_ *models.Account, err error) {
	ctx, finish := s.start(ctx, "AccountService.Me")
	defer func() { finish(err) }()

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, internalError(err)
	}
	return account, nil
}

// Authenticate verifies a bearer token and checks it has not been logged out.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, internalError(err)
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return claims, nil
}

// Logout revokes the token described by claims until its natural expiry.
// It reports false when no denylist is configured: the token then stays
// valid until it expires and only the client can forget it.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) (revoked bool, err error) {
	if _, nop := s.denylist.(revocation.NopDenylist); nop {
		return false, nil
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return false, internalError(err)
	}
	s.log.Info(ctx, "session revoked", "account_id", claims.UserID)
	return true, nil
}

func (s *AccountService) issue(accountID string) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(accountID)
	if err != nil {
		return nil, internalError(err)
	}
	return &Session{AccountID: accountID, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
