package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// Register creates an unverified account and emails its verification code.
//
// It returns ErrMissingFields, ErrInvalidEmail, or a password length error
// for bad input, ErrAccountExists when the email is already verified, and
// ErrTooManyAttempts once MaxPendingRegistrations unverified accounts exist.
// When only the email fails, the created account is returned together with
// ErrCodeDeliveryFailed.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	ctx, span := e.startSpan(ctx, "register")
	account, err := internalflows.RunRegister(ctx, internalflows.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, e.flows)
	endSpan(span, err)
	return account, err
}
