package goAccount

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the immutable Engine configuration. The Builder copies it, so
// changing a Config after Build has no effect on a running Engine.
type Config struct {
	Policy   PolicyConfig
	Session  SessionConfig
	Password PasswordConfig
	Mail     MailConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// PolicyConfig holds the account rules.
type PolicyConfig struct {
	// OTPDigits is the verification code length. Codes never start with 0.
	OTPDigits int
	OTPTTL    time.Duration
	ResetTTL  time.Duration
	// MaxPendingRegistrations caps unverified accounts per email.
	MaxPendingRegistrations int
	PasswordMinLength       int
	PasswordMaxLength       int
	DefaultRole             string
}

// SessionConfig controls session token signing.
type SessionConfig struct {
	TTL time.Duration
	// SigningMethod is "hs256" or "ed25519".
	SigningMethod string
	// PrivateKey is the HMAC secret for hs256.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// PasswordConfig selects and tunes the default hasher.
type PasswordConfig struct {
	// Algorithm is "argon2id" or "bcrypt".
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

// MailConfig shapes outgoing messages.
type MailConfig struct {
	AppName string
	// FrontendURL prefixes the recovery link.
	FrontendURL  string
	ResetPath    string
	SendAttempts int
	SendBackoff  time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the stock policy: 5-digit codes valid 15 minutes,
// 15-minute reset links, 5 pending registrations per email, passwords of 8
// to 16 characters. Session.PrivateKey must still be supplied.
func DefaultConfig() Config {
	return Config{
		Policy: PolicyConfig{
			OTPDigits:               5,
			OTPTTL:                  15 * time.Minute,
			ResetTTL:                15 * time.Minute,
			MaxPendingRegistrations: 5,
			PasswordMinLength:       8,
			PasswordMaxLength:       16,
			DefaultRole:             RoleUser,
		},
		Session: SessionConfig{
			TTL:           72 * time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			Algorithm:   "argon2id",
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  12,
		},
		Mail: MailConfig{
			AppName:      "Bookworm Library",
			FrontendURL:  "http://localhost:3000",
			ResetPath:    "/password/reset/",
			SendAttempts: 3,
			SendBackoff:  200 * time.Millisecond,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.PrivateKey = cloneBytes(cfg.Session.PrivateKey)
	out.Session.PublicKey = cloneBytes(cfg.Session.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting. It does not check signing key
// material when a custom signer replaces the default one; Build handles that.
func (c *Config) Validate() error {
	// Policy
	if c.Policy.OTPDigits < 4 || c.Policy.OTPDigits > 9 {
		return errors.New("Policy OTPDigits must be between 4 and 9")
	}
	if c.Policy.OTPTTL <= 0 {
		return errors.New("Policy OTPTTL must be > 0")
	}
	if c.Policy.ResetTTL <= 0 {
		return errors.New("Policy ResetTTL must be > 0")
	}
	if c.Policy.MaxPendingRegistrations <= 0 {
		return errors.New("Policy MaxPendingRegistrations must be > 0")
	}
	if c.Policy.PasswordMinLength <= 0 {
		return errors.New("Policy PasswordMinLength must be > 0")
	}
	if c.Policy.PasswordMaxLength < c.Policy.PasswordMinLength {
		return errors.New("Policy PasswordMaxLength must be >= PasswordMinLength")
	}
	if role := c.Policy.DefaultRole; role != RoleUser && role != RoleAdmin {
		return fmt.Errorf("Policy DefaultRole %q is not a known role", role)
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.SigningMethod != "hs256" && c.Session.SigningMethod != "ed25519" {
		return errors.New("unsupported Session signing method")
	}
	if c.Session.Leeway < 0 || c.Session.Leeway > 2*time.Minute {
		return errors.New("Session Leeway must be between 0 and 2m")
	}

	// Password
	switch c.Password.Algorithm {
	case "argon2id":
		if c.Password.Memory == 0 || c.Password.Time == 0 || c.Password.Parallelism == 0 {
			return errors.New("Password argon2id parameters must be > 0")
		}
	case "bcrypt":
	default:
		return fmt.Errorf("unsupported Password algorithm %q", c.Password.Algorithm)
	}

	// Mail
	if strings.TrimSpace(c.Mail.AppName) == "" {
		return errors.New("Mail AppName must not be empty")
	}
	u, err := url.Parse(c.Mail.FrontendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Mail FrontendURL must be an absolute http(s) URL")
	}
	if !strings.HasPrefix(c.Mail.ResetPath, "/") {
		return errors.New("Mail ResetPath must start with /")
	}
	if c.Mail.SendAttempts <= 0 {
		return errors.New("Mail SendAttempts must be > 0")
	}
	if c.Mail.SendAttempts > 1 && c.Mail.SendBackoff <= 0 {
		return errors.New("Mail SendBackoff must be > 0 when retrying")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

// resetLink joins the frontend URL, reset path, and token.
func (c *Config) resetLink(token string) string {
	return strings.TrimRight(c.Mail.FrontendURL, "/") + c.Mail.ResetPath + url.PathEscape(token)
}
