package goAccount

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginIssuesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, "ada@example.com", "password1")

	result, err := env.engine.Login(ctx, " ADA@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if want := env.clock.Now().Add(72 * time.Hour).Truncate(time.Second); !result.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, result.ExpiresAt)
	}
	if result.Account.Email != "ada@example.com" || result.Account.PasswordHash == "" {
		t.Fatalf("unexpected account %+v", result.Account)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, "ada@example.com", "password1")
	env.register(t, "pending@example.com", "password1")

	for _, tc := range []struct{ email, pw string }{
		{"ada@example.com", "wrong-pass"},
		{"nobody@example.com", "password1"},
		{"pending@example.com", "password1"},
	} {
		_, err := env.engine.Login(ctx, tc.email, tc.pw)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%s): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
		if PublicMessage(err) != "Invalid email or password." || KindOf(err) != KindAuth {
			t.Fatalf("Login(%s): unexpected message or kind", tc.email)
		}
	}

	if got := env.engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 3 {
		t.Fatalf("expected 3 login failures counted, got %d", got)
	}
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.Login(context.Background(), "", "password1"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if _, err := env.engine.Login(context.Background(), "ada@example.com", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.registerVerified(t, "ada@example.com", "password1")

	for _, token := range []string{"", "garbage", session.Token + "x"} {
		if _, err := env.engine.Authenticate(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("Authenticate(%q): expected ErrUnauthorized, got %v", token, err)
		}
	}

	env.clock.Advance(73 * time.Hour)
	if _, err := env.engine.Authenticate(ctx, session.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token: expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticateRejectsTokenForUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	token, _, err := env.engine.signer.Issue("missing-id", RoleUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := env.engine.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	cases := []struct {
		role    string
		allowed []string
		want    bool
	}{
		{RoleAdmin, []string{RoleAdmin}, true},
		{RoleUser, []string{RoleAdmin, RoleUser}, true},
		{RoleUser, []string{RoleAdmin}, false},
		{RoleUser, nil, false},
		{"", []string{""}, false},
	}
	for _, tc := range cases {
		if got := HasRole(tc.role, tc.allowed...); got != tc.want {
			t.Fatalf("HasRole(%q, %v) = %v, want %v", tc.role, tc.allowed, got, tc.want)
		}
	}
}

func TestAuthorize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := &Account{ID: "1", Role: RoleAdmin}
	if err := env.engine.Authorize(ctx, admin, RoleAdmin); err != nil {
		t.Fatalf("admin must be allowed: %v", err)
	}

	user := &Account{ID: "2", Role: RoleUser}
	err := env.engine.Authorize(ctx, user, RoleAdmin)
	if !errors.Is(err, ErrForbidden) || KindOf(err) != KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if PublicMessage(err) != "user cannot access this resource." {
		t.Fatalf("unexpected message %q", PublicMessage(err))
	}
	if !errors.Is(env.engine.Authorize(ctx, nil, RoleAdmin), ErrUnauthorized) {
		t.Fatal("nil account must be unauthorized")
	}
}

func TestLogoutIsCounted(t *testing.T) {
	env := newTestEnv(t)
	session := env.registerVerified(t, "ada@example.com", "password1")

	env.engine.Logout(context.Background(), session.Token)
	env.engine.Logout(context.Background(), "")

	if got := env.engine.MetricsSnapshot().Counters[MetricLogout]; got != 2 {
		t.Fatalf("expected 2 logouts counted, got %d", got)
	}
	if _, err := env.engine.Authenticate(context.Background(), session.Token); err != nil {
		t.Fatalf("stateless logout leaves the token verifiable: %v", err)
	}
}
