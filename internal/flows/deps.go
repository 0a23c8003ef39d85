package flows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/internal/model"
)

// Policy carries the account rules enforced by the flows.
type Policy struct {
	OTPDigits   int
	OTPTTL      time.Duration
	ResetTTL    time.Duration
	MaxPending  int
	PasswordMin int
	PasswordMax int
	DefaultRole string
}

// Events carries audit event names used by the flows.
type Events struct {
	Register             string
	Verify               string
	Login                string
	Logout               string
	Authenticate         string
	PasswordResetRequest string
	PasswordResetConfirm string
	PasswordChange       string
}

// Errors carries host-level sentinel errors returned by the flows.
type Errors struct {
	EngineNotReady           error
	MissingFields            error
	MissingVerificationInput error
	EmailRequired            error
	InvalidEmail             error
	AccountExists            error
	TooManyAttempts          error
	PendingNotFound          error
	InvalidCode              error
	CodeExpired              error
	InvalidCredentials       error
	UnknownEmail             error
	InvalidResetToken        error
	PasswordMismatch         error
	CurrentPasswordIncorrect error
	Unauthorized             error
	CodeDeliveryFailed       error
	ResetDeliveryFailed      error

	// PasswordLength builds the bounds error for the configured policy.
	PasswordLength func(min, max int) error
	// Internal wraps a collaborator failure for operation op.
	Internal func(op string, err error) error
}

// Session is the result of every flow that signs the caller in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
}

// Deps groups every collaborator the flows use. The root engine builds this
// once and delegates request methods to the matching Run function.
type Deps struct {
	Policy Policy
	Store  model.Store
	Logger *slog.Logger

	Now  func() time.Time
	Lock func(context.Context, string) (func(), error)

	NewID          func() string
	NewOTP         func(int) (int, error)
	NewResetToken  func() (string, string, error)
	HashResetToken func(string) string

	HashPassword   func(string) (string, error)
	VerifyPassword func(string, string) (bool, error)
	// BurnPasswordCheck spends one verification worth of work on a password
	// that matches no account.
	BurnPasswordCheck func(string)

	IssueSession  func(string, string) (string, time.Time, error)
	VerifySession func(string) (string, error)

	Send                func(context.Context, string, string, string) error
	VerificationMessage func(int) (string, string, error)
	ResetMessage        func(string) (string, string, error)

	MetricInc func(metrics.MetricID)
	MetricAdd func(metrics.MetricID, uint64)
	EmitAudit func(context.Context, string, bool, string, string, error, func() map[string]string)

	Events Events
	Errors Errors
}

func normalizeDeps(deps *Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(metrics.MetricID) {}
	}
	if deps.MetricAdd == nil {
		deps.MetricAdd = func(metrics.MetricID, uint64) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.BurnPasswordCheck == nil {
		deps.BurnPasswordCheck = func(string) {}
	}
	if deps.Errors.Internal == nil {
		deps.Errors.Internal = func(_ string, err error) error { return err }
	}
	if deps.Errors.PasswordLength == nil {
		deps.Errors.PasswordLength = func(min, max int) error {
			return fmt.Errorf("password must be between %d and %d characters", min, max)
		}
	}
}

// ready reports whether the collaborators shared by all flows are wired.
func (d *Deps) ready() bool {
	return d.Store != nil && d.Lock != nil && d.HashPassword != nil && d.VerifyPassword != nil && d.IssueSession != nil
}
