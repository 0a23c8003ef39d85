package goAccount

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/internal/model"
)

// Account is one registration attempt or one verified identity.
type Account = model.Account

// AccountStore persists accounts. See stores/memory and stores/postgres.
type AccountStore = model.Store

// SessionResult carries a signed session token and the account it belongs to.
type SessionResult = internalflows.Session

const (
	RoleUser  = model.RoleUser
	RoleAdmin = model.RoleAdmin
)

var (
	// ErrRecordNotFound is what AccountStore implementations return for
	// empty lookups.
	ErrRecordNotFound = model.ErrNotFound
	// ErrRecordDuplicate is what AccountStore.Update returns when a second
	// verified account would exist for one email.
	ErrRecordDuplicate = model.ErrDuplicate
)

// RegisterRequest is the input of Engine.Register.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// CredentialHasher derives and checks password digests.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// TokenSigner issues and checks session tokens.
type TokenSigner interface {
	Issue(accountID, role string) (string, time.Time, error)
	// Verify returns the account id carried by a valid token.
	Verify(token string) (string, error)
}

// NotificationSender delivers an HTML email.
type NotificationSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailLocker serializes work on one email address. Lock blocks until the
// key is free or ctx ends, and returns the release function.
type EmailLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
