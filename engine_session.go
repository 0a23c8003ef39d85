package goAccount

import (
	"context"
	"slices"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// Login signs in a verified account. Unknown emails and wrong passwords
// both return ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	ctx, span := e.startSpan(ctx, "login")
	result, err := internalflows.RunLogin(ctx, email, password, e.flows)
	endSpan(span, err)
	return result, err
}

// Logout records a sign-out. Session tokens are stateless, so the caller is
// responsible for discarding the token (the HTTP layer expires the cookie).
func (e *Engine) Logout(ctx context.Context, token string) {
	ctx, span := e.startSpan(ctx, "logout")
	internalflows.RunLogout(ctx, token, e.flows)
	span.End()
}

// Authenticate is the request guard: it resolves a session token to its
// verified account, or returns ErrUnauthorized.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Account, error) {
	ctx, span := e.startSpan(ctx, "authenticate")
	account, err := internalflows.RunAuthenticate(ctx, token, e.flows)
	endSpan(span, err)
	return account, err
}

// HasRole reports whether role is one of allowed.
func HasRole(role string, allowed ...string) bool {
	return role != "" && slices.Contains(allowed, role)
}

// Authorize returns a Forbidden error naming the account's role when it is
// not one of allowed.
func (e *Engine) Authorize(ctx context.Context, account *Account, allowed ...string) error {
	if account == nil {
		return ErrUnauthorized
	}
	if HasRole(account.Role, allowed...) {
		return nil
	}
	err := forbiddenError(account.Role)
	e.metrics.Inc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAuthorize, false, account.ID, account.Email, err, func() map[string]string {
		return map[string]string{"role": account.Role}
	})
	return err
}
