package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/internal/model"
)

// cleanupTimeout bounds compensating writes that run after the request
// context may already be done.
const cleanupTimeout = 5 * time.Second

// RunRequestPasswordReset stores the digest of a fresh recovery token on the
// verified account for email and mails the raw token. The email lock is
// released before delivery; a failed delivery re-takes it and clears the
// digest unless a newer request has replaced it.
func RunRequestPasswordReset(ctx context.Context, email string, deps Deps) error {
	normalizeDeps(&deps)
	if !deps.ready() || deps.NewResetToken == nil || deps.Send == nil || deps.ResetMessage == nil {
		return deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)

	var accountID string
	fail := func(err error, reason string) error {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	if email == "" {
		return fail(deps.Errors.EmailRequired, "missing_email")
	}

	unlock, err := deps.Lock(ctx, email)
	if err != nil {
		return deps.Errors.Internal("reset_request.lock", err)
	}
	account, token, digest, err := storeResetToken(ctx, email, deps)
	unlock()
	if err != nil {
		if errors.Is(err, deps.Errors.UnknownEmail) {
			return fail(err, "unknown_email")
		}
		return err
	}
	accountID = account.ID

	subject, body, err := deps.ResetMessage(token)
	if err == nil {
		err = deps.Send(ctx, email, subject, body)
	}
	if err != nil {
		deps.Logger.WarnContext(ctx, "password reset delivery failed", "account_id", account.ID, "error", err)
		deps.MetricInc(metrics.MetricPasswordResetDeliveryFailure)

		if clearErr := clearResetToken(ctx, account.ID, email, digest, deps); clearErr != nil {
			return deps.Errors.Internal("reset_request.clear", clearErr)
		}
		return fail(deps.Errors.ResetDeliveryFailed, "delivery_failed")
	}

	deps.MetricInc(metrics.MetricPasswordResetRequest)
	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, account.ID, email, nil, nil)
	return nil
}

func storeResetToken(ctx context.Context, email string, deps Deps) (*model.Account, string, string, error) {
	account, err := deps.Store.FindVerifiedByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, "", "", deps.Errors.UnknownEmail
	}
	if err != nil {
		return nil, "", "", deps.Errors.Internal("reset_request.find", err)
	}

	token, digest, err := deps.NewResetToken()
	if err != nil {
		return nil, "", "", deps.Errors.Internal("reset_request.token", err)
	}

	now := deps.Now()
	account.SetResetToken(digest, now.Add(deps.Policy.ResetTTL))
	account.UpdatedAt = now
	if err := deps.Store.Update(ctx, account); err != nil {
		return nil, "", "", deps.Errors.Internal("reset_request.store", err)
	}
	return account, token, digest, nil
}

// clearResetToken drops digest from the account under the email lock. It
// runs detached from ctx's cancellation so an abandoned request still
// clears the undelivered token.
func clearResetToken(ctx context.Context, accountID, email, digest string, deps Deps) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	unlock, err := deps.Lock(ctx, email)
	if err != nil {
		return err
	}
	defer unlock()

	account, err := deps.Store.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if account.ResetTokenHash == nil || *account.ResetTokenHash != digest {
		return nil
	}
	account.ClearResetToken()
	account.UpdatedAt = deps.Now()
	return deps.Store.Update(ctx, account)
}

// RunResetPassword redeems a recovery token, replaces the password, and signs
// the account in. The token is single use: the row is re-read under the
// email lock and the digest cleared in the same write as the new password.
func RunResetPassword(ctx context.Context, token, password, confirm string, deps Deps) (*Session, error) {
	normalizeDeps(&deps)
	if !deps.ready() || deps.HashResetToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	var accountID, email string
	fail := func(err error, reason string) (*Session, error) {
		deps.MetricInc(metrics.MetricPasswordResetFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fail(deps.Errors.InvalidResetToken, "missing_token")
	}
	digest := deps.HashResetToken(token)

	candidate, err := deps.Store.FindByResetTokenHash(ctx, digest, deps.Now())
	if errors.Is(err, model.ErrNotFound) {
		return fail(deps.Errors.InvalidResetToken, "unknown_token")
	}
	if err != nil {
		return nil, deps.Errors.Internal("reset.find", err)
	}
	accountID, email = candidate.ID, candidate.Email

	unlock, err := deps.Lock(ctx, candidate.Email)
	if err != nil {
		return nil, deps.Errors.Internal("reset.lock", err)
	}
	defer unlock()

	account, err := deps.Store.FindByID(ctx, candidate.ID)
	if errors.Is(err, model.ErrNotFound) {
		return fail(deps.Errors.InvalidResetToken, "unknown_token")
	}
	if err != nil {
		return nil, deps.Errors.Internal("reset.reload", err)
	}
	if !account.ResetTokenValid(digest, deps.Now()) {
		return fail(deps.Errors.InvalidResetToken, "token_consumed")
	}

	if password != confirm {
		return fail(deps.Errors.PasswordMismatch, "confirm_mismatch")
	}
	if !PasswordLengthOK(password, deps.Policy) {
		return fail(deps.passwordLengthError(), "password_length")
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return nil, deps.Errors.Internal("reset.hash", err)
	}
	account.PasswordHash = hash
	account.ClearResetToken()
	account.UpdatedAt = deps.Now()
	if err := deps.Store.Update(ctx, account); err != nil {
		return nil, deps.Errors.Internal("reset.store", err)
	}

	session, err := issueSession(account, deps)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(metrics.MetricPasswordResetSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, account.ID, account.Email, nil, nil)
	return session, nil
}
