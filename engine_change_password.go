package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// ChangePassword replaces the password of an authenticated account.
//
// accountID normally comes from Authenticate. The current password must
// match; the new one must satisfy the length policy and equal confirm. The
// existing session stays valid and no new one is issued.
func (e *Engine) ChangePassword(ctx context.Context, accountID, current, next, confirm string) error {
	ctx, span := e.startSpan(ctx, "change_password")
	err := internalflows.RunChangePassword(ctx, accountID, current, next, confirm, e.flows)
	endSpan(span, err)
	return err
}
