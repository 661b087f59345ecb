// Package accounts provides the PostgreSQL-backed account repository,
// including storage of the pending password reset ticket.
package accounts

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

const emailConstraint = "accounts_email_key"

// PostgresRepository implements account storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts account and fills in its generated ID and creation time.
// A taken email yields common.ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.PasswordHash).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// GetByID returns the account with the given id or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, username, email, password_hash, reset_token, reset_token_expires_at, created_at
		 FROM accounts WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail returns the account registered with email or common.ErrNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, username, email, password_hash, reset_token, reset_token_expires_at, created_at
		 FROM accounts WHERE email = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByResetToken returns the account holding the pending reset token, or
// common.ErrNotFound. Expiry is left to the caller.
func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string) (*models.Account, error) {
	query :=
		`SELECT id, username, email, password_hash, reset_token, reset_token_expires_at, created_at
		 FROM accounts WHERE reset_token = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		a         models.Account
		token     sql.NullString
		expiresAt sql.NullTime
	)

	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &token, &expiresAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if token.Valid && expiresAt.Valid {
		a.Reset = &models.ResetTicket{Token: token.String, ExpiresAt: expiresAt.Time}
	}

	return &a, nil
}

// SetResetTicket stores ticket on the account registered with email,
// replacing any pending one. A nil ticket clears it. Returns
// common.ErrNotFound when no account has that email.
func (r *PostgresRepository) SetResetTicket(ctx context.Context, email string, ticket *models.ResetTicket) error {
	var (
		token     sql.NullString
		expiresAt sql.NullTime
	)
	if ticket != nil {
		token = sql.NullString{String: ticket.Token, Valid: true}
		expiresAt = sql.NullTime{Time: ticket.ExpiresAt, Valid: true}
	}

	query :=
		`UPDATE accounts SET reset_token = $1, reset_token_expires_at = $2
		 WHERE email = $3
		 `

	res, err := r.db.ExecContext(ctx, query, token, expiresAt, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrNotFound)
}

// ConsumeResetTicket sets a new password hash on the account holding token,
// provided the token has not expired at now, and clears the ticket in the
// same statement. A missing, used or expired token yields
// common.ErrInvalidOrExpired.
func (r *PostgresRepository) ConsumeResetTicket(ctx context.Context, token, passwordHash string, now time.Time) error {
	query :=
		`UPDATE accounts
		 SET password_hash = $1, reset_token = NULL, reset_token_expires_at = NULL
		 WHERE reset_token = $2 AND reset_token_expires_at > $3
		 `

	res, err := r.db.ExecContext(ctx, query, passwordHash, token, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrInvalidOrExpired)
}

// Delete removes the account row. Returns common.ErrNotFound when nothing
// was deleted.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res, common.ErrNotFound)
}
