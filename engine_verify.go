package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// VerifyOTP confirms the code mailed at registration and signs the account
// in.
//
// Only the newest pending account for email is considered; older pending
// rows are deleted before the code is compared. A code is valid up to and
// including its expiry instant.
func (e *Engine) VerifyOTP(ctx context.Context, email, otp string) (*SessionResult, error) {
	ctx, span := e.startSpan(ctx, "verify_otp")
	result, err := internalflows.RunVerifyOTP(ctx, email, otp, e.flows)
	endSpan(span, err)
	return result, err
}
