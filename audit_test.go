package goAccount

import (
	"context"
	"testing"
	"time"
)

func TestEngineEmitsAuditEvents(t *testing.T) {
	sink := NewChannelSink(16)
	env := newTestEnv(t, func(c *Config, b *Builder) {
		c.Audit.Enabled = true
		c.Audit.BufferSize = 16
		c.Audit.DropIfFull = false
		b.WithAuditSink(sink)
	})

	ctx := WithUserAgent(WithClientIP(context.Background(), "203.0.113.9"), "test-agent")
	if _, err := env.engine.Login(ctx, "nobody@example.com", "password1"); err == nil {
		t.Fatal("expected login failure")
	}

	select {
	case event := <-sink.Events():
		if event.EventType != "login" || event.Success {
			t.Fatalf("unexpected event %+v", event)
		}
		if event.Error != string(auditErrInvalidCredentials) {
			t.Fatalf("unexpected error code %q", event.Error)
		}
		if event.IP != "203.0.113.9" || event.UserAgent != "test-agent" || event.Email != "nobody@example.com" {
			t.Fatalf("request context missing from event %+v", event)
		}
		if event.Metadata["reason"] != "unknown_email" {
			t.Fatalf("unexpected metadata %v", event.Metadata)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrAccountExists, auditErrDuplicate},
		{ErrTooManyAttempts, auditErrThrottled},
		{ErrCodeExpired, auditErrCodeExpired},
		{ErrMissingFields, auditErrValidation},
		{passwordLengthError(8, 16), auditErrValidation},
		{ErrInternal, auditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
