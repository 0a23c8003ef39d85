package goAccount

import (
	"context"
	"errors"
	"testing"
)

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.registerVerified(t, "ada@example.com", "password1")
	id := session.Account.ID

	cases := []struct {
		name                   string
		current, next, confirm string
		want                   error
		kind                   ErrorKind
	}{
		{"missing", "", "new-pass-1", "new-pass-1", ErrMissingFields, KindValidation},
		{"wrong current", "password2", "new-pass-1", "new-pass-1", ErrCurrentPasswordIncorrect, KindAuth},
		{"too short", "password1", "short", "short", ErrPasswordLength, KindValidation},
		{"too long", "password1", "seventeen-chars!!", "seventeen-chars!!", ErrPasswordLength, KindValidation},
		{"mismatch", "password1", "new-pass-1", "new-pass-2", ErrPasswordMismatch, KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := env.engine.ChangePassword(ctx, id, tc.current, tc.next, tc.confirm)
			if !errors.Is(err, tc.want) || KindOf(err) != tc.kind {
				t.Fatalf("expected %v (%v), got %v", tc.want, tc.kind, err)
			}
		})
	}

	if err := env.engine.ChangePassword(ctx, id, "password1", "new-pass-1", "new-pass-1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.engine.Login(ctx, "ada@example.com", "new-pass-1"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
	if _, err := env.engine.Authenticate(ctx, session.Token); err != nil {
		t.Fatalf("existing session stays valid: %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricPasswordChangeSuccess]; got != 1 {
		t.Fatalf("expected one success counted, got %d", got)
	}
}

func TestChangePasswordUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.ChangePassword(context.Background(), "missing", "password1", "new-pass-1", "new-pass-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
