package goAccount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	internalmetrics "github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/mail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrEthical07/goAccount"

// burnPassword is hashed once per Engine so logins for unknown emails spend
// the same verification work as real ones.
const burnPassword = "goaccount-burn-password"

// Engine runs the account flows. It is safe for concurrent use and immutable
// after Build.
type Engine struct {
	config Config

	store   AccountStore
	hasher  CredentialHasher
	signer  TokenSigner
	sender  NotificationSender
	locker  EmailLocker
	logger  *slog.Logger
	clock   func() time.Time
	tracer  trace.Tracer
	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics

	burnOnce   sync.Once
	burnDigest string

	flows internalflows.Deps
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// MetricsSnapshot returns a point-in-time copy of the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// Close flushes and stops the audit dispatcher. The Engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

func (e *Engine) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "goaccount."+name)
}

// endSpan records err on span with its taxonomy kind and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetAttributes(attribute.String("goaccount.error_kind", KindOf(err).String()))
		if KindOf(err) == KindInternal {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

// internalError wraps a collaborator failure as ErrInternal and logs the
// detail. Errors already in the taxonomy pass through unchanged.
func (e *Engine) internalError(op string, err error) error {
	if err == nil {
		return nil
	}
	var taxonomy *Error
	if errors.As(err, &taxonomy) {
		return err
	}
	e.metrics.Inc(MetricInternalError)
	e.logger.Error("account operation failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func (e *Engine) burnPasswordCheck(plaintext string) {
	e.burnOnce.Do(func() {
		digest, err := e.hasher.Hash(burnPassword)
		if err != nil {
			e.logger.Warn("burn digest unavailable", "error", err)
			return
		}
		e.burnDigest = digest
	})
	if e.burnDigest != "" {
		_, _ = e.hasher.Verify(plaintext, e.burnDigest)
	}
}

func (e *Engine) verificationMessage(code int) (string, string, error) {
	return mail.RenderVerificationCode(mail.VerificationData{
		AppName:  e.config.Mail.AppName,
		Code:     code,
		ValidFor: e.config.Policy.OTPTTL,
	})
}

func (e *Engine) resetMessage(token string) (string, string, error) {
	return mail.RenderPasswordReset(mail.ResetData{
		AppName:  e.config.Mail.AppName,
		Link:     e.config.resetLink(token),
		ValidFor: e.config.Policy.ResetTTL,
	})
}

func (e *Engine) flowDeps() internalflows.Deps {
	cfg := e.config
	return internalflows.Deps{
		Policy: internalflows.Policy{
			OTPDigits:   cfg.Policy.OTPDigits,
			OTPTTL:      cfg.Policy.OTPTTL,
			ResetTTL:    cfg.Policy.ResetTTL,
			MaxPending:  cfg.Policy.MaxPendingRegistrations,
			PasswordMin: cfg.Policy.PasswordMinLength,
			PasswordMax: cfg.Policy.PasswordMaxLength,
			DefaultRole: cfg.Policy.DefaultRole,
		},
		Store:  e.store,
		Logger: e.logger,

		Now:  e.now,
		Lock: e.locker.Lock,

		NewID:          internal.NewAccountID,
		NewOTP:         internal.NewOTP,
		NewResetToken:  internal.NewResetToken,
		HashResetToken: internal.HashResetToken,

		HashPassword:      e.hasher.Hash,
		VerifyPassword:    e.hasher.Verify,
		BurnPasswordCheck: e.burnPasswordCheck,

		IssueSession:  e.signer.Issue,
		VerifySession: e.signer.Verify,

		Send:                e.sender.Send,
		VerificationMessage: e.verificationMessage,
		ResetMessage:        e.resetMessage,

		MetricInc: e.metrics.Inc,
		MetricAdd: e.metrics.Add,
		EmitAudit: e.emitAudit,

		Events: internalflows.Events{
			Register:             auditEventRegister,
			Verify:               auditEventVerify,
			Login:                auditEventLogin,
			Logout:               auditEventLogout,
			Authenticate:         auditEventAuthenticate,
			PasswordResetRequest: auditEventPasswordResetRequest,
			PasswordResetConfirm: auditEventPasswordResetConfirm,
			PasswordChange:       auditEventPasswordChange,
		},
		Errors: internalflows.Errors{
			EngineNotReady:           ErrEngineNotReady,
			MissingFields:            ErrMissingFields,
			MissingVerificationInput: ErrMissingVerificationInput,
			EmailRequired:            ErrEmailRequired,
			InvalidEmail:             ErrInvalidEmail,
			AccountExists:            ErrAccountExists,
			TooManyAttempts:          ErrTooManyAttempts,
			PendingNotFound:          ErrPendingNotFound,
			InvalidCode:              ErrInvalidCode,
			CodeExpired:              ErrCodeExpired,
			InvalidCredentials:       ErrInvalidCredentials,
			UnknownEmail:             ErrUnknownEmail,
			InvalidResetToken:        ErrInvalidResetToken,
			PasswordMismatch:         ErrPasswordMismatch,
			CurrentPasswordIncorrect: ErrCurrentPasswordIncorrect,
			Unauthorized:             ErrUnauthorized,
			CodeDeliveryFailed:       ErrCodeDeliveryFailed,
			ResetDeliveryFailed:      ErrResetDeliveryFailed,
			PasswordLength:           passwordLengthError,
			Internal:                 e.internalError,
		},
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
