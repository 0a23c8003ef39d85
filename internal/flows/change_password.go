package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/internal/model"
)

// RunChangePassword replaces the password of an authenticated account after
// checking the current one. No new session is issued.
func RunChangePassword(ctx context.Context, accountID, current, next, confirm string, deps Deps) error {
	normalizeDeps(&deps)
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	var email string
	fail := func(err error, reason string) error {
		deps.MetricInc(metrics.MetricPasswordChangeFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	if current == "" || next == "" || confirm == "" {
		return fail(deps.Errors.MissingFields, "missing_fields")
	}

	account, err := deps.Store.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return fail(deps.Errors.Unauthorized, "unknown_account")
	}
	if err != nil {
		return deps.Errors.Internal("change_password.find", err)
	}
	email = account.Email

	unlock, err := deps.Lock(ctx, account.Email)
	if err != nil {
		return deps.Errors.Internal("change_password.lock", err)
	}
	defer unlock()

	if account, err = deps.Store.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fail(deps.Errors.Unauthorized, "unknown_account")
		}
		return deps.Errors.Internal("change_password.reload", err)
	}
	if !account.Verified {
		return fail(deps.Errors.Unauthorized, "unverified")
	}

	ok, err := deps.VerifyPassword(current, account.PasswordHash)
	if err != nil {
		return deps.Errors.Internal("change_password.verify", err)
	}
	if !ok {
		return fail(deps.Errors.CurrentPasswordIncorrect, "current_mismatch")
	}

	if !PasswordLengthOK(next, deps.Policy) || !PasswordLengthOK(confirm, deps.Policy) {
		return fail(deps.passwordLengthError(), "password_length")
	}
	if next != confirm {
		return fail(deps.Errors.PasswordMismatch, "confirm_mismatch")
	}

	hash, err := deps.HashPassword(next)
	if err != nil {
		return deps.Errors.Internal("change_password.hash", err)
	}
	account.PasswordHash = hash
	account.UpdatedAt = deps.Now()
	if err := deps.Store.Update(ctx, account); err != nil {
		return deps.Errors.Internal("change_password.store", err)
	}

	deps.MetricInc(metrics.MetricPasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChange, true, account.ID, account.Email, nil, nil)
	return nil
}
