package flows

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/internal/model"
)

// RunVerifyOTP checks code against the newest pending account for email,
// removes every older pending row, promotes the survivor, and signs it in.
func RunVerifyOTP(ctx context.Context, email, code string, deps Deps) (*Session, error) {
	normalizeDeps(&deps)
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)

	var accountID string
	fail := func(err error, reason string) (*Session, error) {
		deps.MetricInc(metrics.MetricVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.Verify, false, accountID, email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	if email == "" || code == "" {
		return fail(deps.Errors.MissingVerificationInput, "missing_fields")
	}

	unlock, err := deps.Lock(ctx, email)
	if err != nil {
		return nil, deps.Errors.Internal("verify.lock", err)
	}
	defer unlock()

	if _, err := deps.Store.FindVerifiedByEmail(ctx, email); err == nil {
		return fail(deps.Errors.AccountExists, "verified_exists")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, deps.Errors.Internal("verify.find_verified", err)
	}

	pending, err := deps.Store.ListUnverifiedByEmail(ctx, email)
	if err != nil {
		return nil, deps.Errors.Internal("verify.list_pending", err)
	}
	if len(pending) == 0 {
		return fail(deps.Errors.PendingNotFound, "no_pending")
	}

	account := pending[0]
	accountID = account.ID
	if len(pending) > 1 {
		removed, err := deps.Store.DeleteUnverifiedExcept(ctx, email, account.ID)
		if err != nil {
			return nil, deps.Errors.Internal("verify.prune", err)
		}
		deps.MetricAdd(metrics.MetricVerifyPruned, uint64(removed))
	}

	submitted, err := strconv.Atoi(code)
	if err != nil || account.OTPCode == nil || *account.OTPCode != submitted {
		return fail(deps.Errors.InvalidCode, "code_mismatch")
	}

	now := deps.Now()
	if account.OTPExpiresAt == nil || now.After(*account.OTPExpiresAt) {
		return fail(deps.Errors.CodeExpired, "code_expired")
	}

	account.Verified = true
	account.ClearOTP()
	account.UpdatedAt = now
	if err := deps.Store.Update(ctx, account); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return fail(deps.Errors.AccountExists, "verified_exists")
		}
		return nil, deps.Errors.Internal("verify.promote", err)
	}

	session, err := issueSession(account, deps)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(metrics.MetricVerifySuccess)
	deps.EmitAudit(ctx, deps.Events.Verify, true, account.ID, email, nil, nil)
	return session, nil
}

func issueSession(account *model.Account, deps Deps) (*Session, error) {
	token, expiresAt, err := deps.IssueSession(account.ID, account.Role)
	if err != nil {
		return nil, deps.Errors.Internal("session.issue", err)
	}
	deps.MetricInc(metrics.MetricSessionIssued)
	return &Session{Token: token, ExpiresAt: expiresAt, Account: account.Clone()}, nil
}
