package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// RequestPasswordReset emails a single-use recovery link to a verified
// account. Only the SHA-256 digest of the token is stored. ErrUnknownEmail
// is returned when no verified account has the email.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := e.startSpan(ctx, "request_password_reset")
	err := internalflows.RunRequestPasswordReset(ctx, email, e.flows)
	endSpan(span, err)
	return err
}

// ResetPassword redeems a recovery token, replaces the password, and signs
// the account in.
func (e *Engine) ResetPassword(ctx context.Context, token, password, confirm string) (*SessionResult, error) {
	ctx, span := e.startSpan(ctx, "reset_password")
	result, err := internalflows.RunResetPassword(ctx, token, password, confirm, e.flows)
	endSpan(span, err)
	return result, err
}
