package model

import (
	"context"
	"errors"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrNotFound is returned by Store lookups that match no row.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when a write would create a second verified
	// account for one email.
	ErrDuplicate = errors.New("verified account already exists for email")
)

// Account is one registration attempt or one verified identity.
//
// OTPCode/OTPExpiresAt and ResetTokenHash/ResetTokenExpiresAt are set and
// cleared in pairs.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Verified     bool

	OTPCode      *int
	OTPExpiresAt *time.Time

	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetOTP stores a verification code and its expiry.
func (a *Account) SetOTP(code int, expiresAt time.Time) {
	a.OTPCode = &code
	a.OTPExpiresAt = &expiresAt
}

// ClearOTP drops the verification code pair.
func (a *Account) ClearOTP() {
	a.OTPCode = nil
	a.OTPExpiresAt = nil
}

// SetResetToken stores a recovery token digest and its expiry.
func (a *Account) SetResetToken(hash string, expiresAt time.Time) {
	a.ResetTokenHash = &hash
	a.ResetTokenExpiresAt = &expiresAt
}

// ClearResetToken drops the recovery token pair.
func (a *Account) ClearResetToken() {
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
}

// ResetTokenValid reports whether hash matches the stored digest and the
// digest has not expired at now.
func (a *Account) ResetTokenValid(hash string, now time.Time) bool {
	if a == nil || a.ResetTokenHash == nil || a.ResetTokenExpiresAt == nil {
		return false
	}
	return *a.ResetTokenHash == hash && a.ResetTokenExpiresAt.After(now)
}

// Clone returns a deep copy so callers never share the optional fields.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.OTPCode != nil {
		v := *a.OTPCode
		out.OTPCode = &v
	}
	if a.OTPExpiresAt != nil {
		v := *a.OTPExpiresAt
		out.OTPExpiresAt = &v
	}
	if a.ResetTokenHash != nil {
		v := *a.ResetTokenHash
		out.ResetTokenHash = &v
	}
	if a.ResetTokenExpiresAt != nil {
		v := *a.ResetTokenExpiresAt
		out.ResetTokenExpiresAt = &v
	}
	return &out
}

// Store is the persistence contract for accounts. Emails are passed already
// normalized. Implementations return ErrNotFound for empty lookups.
type Store interface {
	// FindVerifiedByEmail returns the single verified account for email.
	FindVerifiedByEmail(ctx context.Context, email string) (*Account, error)
	// ListUnverifiedByEmail returns unverified accounts newest first. Rows
	// created at the same instant are ordered by ID descending.
	ListUnverifiedByEmail(ctx context.Context, email string) ([]*Account, error)
	CountUnverifiedByEmail(ctx context.Context, email string) (int, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	// FindByResetTokenHash returns the account whose reset digest equals hash
	// and whose reset expiry is after now.
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*Account, error)
	Insert(ctx context.Context, account *Account) error
	// Update persists every mutable field of account. It returns ErrDuplicate
	// when promoting would violate the one-verified-per-email rule.
	Update(ctx context.Context, account *Account) error
	// DeleteUnverifiedExcept removes unverified rows for email other than
	// keepID and reports how many were removed.
	DeleteUnverifiedExcept(ctx context.Context, email, keepID string) (int64, error)
}
