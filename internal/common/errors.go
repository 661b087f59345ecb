// Package common defines shared constants and sentinel errors used across
// the todokeeper server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Categories. Transport layers map these to status codes.
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")

	// Account errors.
	ErrDuplicateEmail     = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountGone is returned when a write references an owner whose
	// account row no longer exists.
	ErrAccountGone = fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
	// ErrCaptchaFailed rejects a registration the bot check did not pass.
	ErrCaptchaFailed = fmt.Errorf("%w: CAPTCHA verification failed", ErrValidation)

	// Password reset errors. Unknown, consumed and expired tokens all
	// collapse into this one value.
	ErrInvalidOrExpired = errors.New("invalid or expired reset token")

	// Session token errors.
	ErrInvalidToken  = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired  = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenRevoked  = fmt.Errorf("%w: token revoked", ErrUnauthorized)
	ErrMissingSecret = errors.New("token signing secret is not configured")
)
