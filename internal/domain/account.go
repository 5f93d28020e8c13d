package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is the single persisted identity record. Email is the unique
// lookup key and is stored exactly as supplied at registration.
type Account struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Email              string     `db:"email" json:"email"`
	FullName           *string    `db:"full_name" json:"fullname,omitempty"`
	PasswordHash       []byte     `db:"password_hash" json:"-"`
	PasswordSalt       []byte     `db:"password_salt" json:"-"`
	ResetCode          *string    `db:"reset_code" json:"-"`
	ResetCodeExpiresAt *time.Time `db:"reset_code_expires_at" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// SetResetCode stores a fresh one-time code, replacing any pending one.
// Code and expiry are always written as a pair.
func (a *Account) SetResetCode(code string, expiresAt time.Time) {
	a.ResetCode = &code
	a.ResetCodeExpiresAt = &expiresAt
}

// ClearResetCode removes the pending code pair, if any.
func (a *Account) ClearResetCode() {
	a.ResetCode = nil
	a.ResetCodeExpiresAt = nil
}

// HasValidResetCode reports whether a reset code is pending and still live
// at the given instant. A code is live strictly before its expiry.
func (a *Account) HasValidResetCode(now time.Time) bool {
	return a.ResetCode != nil && a.ResetCodeExpiresAt != nil && now.Before(*a.ResetCodeExpiresAt)
}
