package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/internal/model"
)

// RunLogin signs in a verified account. Unknown email and wrong password
// return the same error after the same amount of hashing work.
func RunLogin(ctx context.Context, email, password string, deps Deps) (*Session, error) {
	normalizeDeps(&deps)
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)

	var accountID string
	fail := func(err error, reason string) (*Session, error) {
		deps.MetricInc(metrics.MetricLoginFailure)
		deps.EmitAudit(ctx, deps.Events.Login, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	if email == "" || password == "" {
		return fail(deps.Errors.MissingFields, "missing_fields")
	}

	account, err := deps.Store.FindVerifiedByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		deps.BurnPasswordCheck(password)
		return fail(deps.Errors.InvalidCredentials, "unknown_email")
	}
	if err != nil {
		return nil, deps.Errors.Internal("login.find", err)
	}
	accountID = account.ID

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, deps.Errors.Internal("login.verify", err)
	}
	if !ok {
		return fail(deps.Errors.InvalidCredentials, "password_mismatch")
	}

	session, err := issueSession(account, deps)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(metrics.MetricLoginSuccess)
	deps.EmitAudit(ctx, deps.Events.Login, true, account.ID, email, nil, nil)
	return session, nil
}

// RunLogout records the sign-out. Tokens are stateless, so there is nothing
// to revoke server-side; an unreadable token is not an error.
func RunLogout(ctx context.Context, token string, deps Deps) {
	normalizeDeps(&deps)

	var accountID string
	if token = strings.TrimSpace(token); token != "" && deps.VerifySession != nil {
		accountID, _ = deps.VerifySession(token)
	}
	deps.MetricInc(metrics.MetricLogout)
	deps.EmitAudit(ctx, deps.Events.Logout, true, accountID, "", nil, nil)
}

// RunAuthenticate resolves a session token to its verified account.
func RunAuthenticate(ctx context.Context, token string, deps Deps) (*model.Account, error) {
	normalizeDeps(&deps)
	if deps.Store == nil || deps.VerifySession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(accountID, reason string) (*model.Account, error) {
		deps.MetricInc(metrics.MetricAuthenticateFailure)
		deps.EmitAudit(ctx, deps.Events.Authenticate, false, accountID, "", deps.Errors.Unauthorized, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, deps.Errors.Unauthorized
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fail("", "missing_token")
	}
	accountID, err := deps.VerifySession(token)
	if err != nil {
		return fail("", "invalid_token")
	}

	account, err := deps.Store.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return fail(accountID, "unknown_account")
	}
	if err != nil {
		return nil, deps.Errors.Internal("authenticate.find", err)
	}
	if !account.Verified {
		return fail(accountID, "unverified")
	}
	return account, nil
}
