package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/internal/model"
)

// RegisterInput is the flow-local registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RunRegister creates an unverified account carrying a fresh verification
// code and mails the code. When delivery fails the account is returned along
// with Errors.CodeDeliveryFailed; the row is kept so a later attempt can
// succeed.
func RunRegister(ctx context.Context, in RegisterInput, deps Deps) (*model.Account, error) {
	normalizeDeps(&deps)
	if !deps.ready() || deps.NewOTP == nil || deps.NewID == nil || deps.Send == nil || deps.VerificationMessage == nil {
		return nil, deps.Errors.EngineNotReady
	}

	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	fail := func(metric metrics.MetricID, err error, reason string) (*model.Account, error) {
		deps.MetricInc(metric)
		deps.EmitAudit(ctx, deps.Events.Register, false, "", email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	if name == "" || email == "" || in.Password == "" {
		return fail(metrics.MetricRegisterInvalid, deps.Errors.MissingFields, "missing_fields")
	}
	if !ValidEmail(email) {
		return fail(metrics.MetricRegisterInvalid, deps.Errors.InvalidEmail, "invalid_email")
	}
	if !PasswordLengthOK(in.Password, deps.Policy) {
		return fail(metrics.MetricRegisterInvalid, deps.passwordLengthError(), "password_length")
	}

	unlock, err := deps.Lock(ctx, email)
	if err != nil {
		return nil, deps.Errors.Internal("register.lock", err)
	}
	account, err := registerLocked(ctx, name, email, in.Password, deps)
	unlock()
	if err != nil {
		switch {
		case errors.Is(err, deps.Errors.AccountExists):
			return fail(metrics.MetricRegisterConflict, err, "verified_exists")
		case errors.Is(err, deps.Errors.TooManyAttempts):
			return fail(metrics.MetricRegisterThrottled, err, "pending_cap")
		}
		return nil, err
	}

	subject, body, err := deps.VerificationMessage(*account.OTPCode)
	if err == nil {
		err = deps.Send(ctx, email, subject, body)
	}
	if err != nil {
		deps.Logger.WarnContext(ctx, "verification code delivery failed", "account_id", account.ID, "error", err)
		deps.MetricInc(metrics.MetricCodeDeliveryFailure)
		deps.EmitAudit(ctx, deps.Events.Register, false, account.ID, email, deps.Errors.CodeDeliveryFailed, func() map[string]string {
			return map[string]string{"reason": "delivery_failed"}
		})
		return account, deps.Errors.CodeDeliveryFailed
	}

	deps.MetricInc(metrics.MetricRegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.Register, true, account.ID, email, nil, nil)
	return account, nil
}

func registerLocked(ctx context.Context, name, email, password string, deps Deps) (*model.Account, error) {
	if _, err := deps.Store.FindVerifiedByEmail(ctx, email); err == nil {
		return nil, deps.Errors.AccountExists
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, deps.Errors.Internal("register.find_verified", err)
	}

	pending, err := deps.Store.CountUnverifiedByEmail(ctx, email)
	if err != nil {
		return nil, deps.Errors.Internal("register.count_pending", err)
	}
	if pending >= deps.Policy.MaxPending {
		return nil, deps.Errors.TooManyAttempts
	}

	digest, err := deps.HashPassword(password)
	if err != nil {
		return nil, deps.Errors.Internal("register.hash", err)
	}
	code, err := deps.NewOTP(deps.Policy.OTPDigits)
	if err != nil {
		return nil, deps.Errors.Internal("register.otp", err)
	}

	now := deps.Now()
	account := &model.Account{
		ID:           deps.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Role:         deps.Policy.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	account.SetOTP(code, now.Add(deps.Policy.OTPTTL))

	if err := deps.Store.Insert(ctx, account); err != nil {
		return nil, deps.Errors.Internal("register.insert", err)
	}
	deps.Logger.DebugContext(ctx, "pending account created", "account_id", account.ID, "pending", pending+1)
	return account.Clone(), nil
}
