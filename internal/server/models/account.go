// Package models holds the records persisted by the server.
package models

import "time"

// Account is a registered user.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	// Reset is the pending password reset, nil when none is outstanding.
	Reset     *ResetTicket
	CreatedAt time.Time
}

// ResetTicket is a single-use password reset token and its expiry. The token
// and expiry are stored together or not at all.
type ResetTicket struct {
	Token     string
	ExpiresAt time.Time
}

// Usable reports whether the ticket can still be redeemed at now.
func (t *ResetTicket) Usable(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}
