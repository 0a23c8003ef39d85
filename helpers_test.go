package goAccount

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/mail"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/stores/memory"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	engine *Engine
	store  *memory.Store
	outbox *mail.Outbox
	clock  *fakeClock
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.PrivateKey = testSigningKey
	cfg.Mail.SendAttempts = 1
	return cfg
}

func newTestEnv(t *testing.T, configure ...func(*Config, *Builder)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  memory.New(),
		outbox: mail.NewOutbox(),
		clock:  newFakeClock(),
	}
	cfg := testConfig()
	b := New().
		WithStore(env.store).
		WithSender(env.outbox).
		WithHasher(newTestHasher(t)).
		WithClock(env.clock.Now)
	for _, fn := range configure {
		fn(&cfg, b)
	}
	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

func (env *testEnv) register(t *testing.T, email, pw string) *Account {
	t.Helper()

	account, err := env.engine.Register(context.Background(), RegisterRequest{Name: "Ada", Email: email, Password: pw})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return account
}

// newestCode returns the code of the newest pending account for email.
func (env *testEnv) newestCode(t *testing.T, email string) int {
	t.Helper()

	pending, err := env.store.ListUnverifiedByEmail(context.Background(), email)
	if err != nil || len(pending) == 0 {
		t.Fatalf("no pending account for %s: %v", email, err)
	}
	return *pending[0].OTPCode
}

func (env *testEnv) registerVerified(t *testing.T, email, pw string) *SessionResult {
	t.Helper()

	env.register(t, email, pw)
	result, err := env.engine.VerifyOTP(context.Background(), email, strconv.Itoa(env.newestCode(t, email)))
	if err != nil {
		t.Fatalf("VerifyOTP(%s): %v", email, err)
	}
	return result
}

var resetLinkPattern = regexp.MustCompile(`/password/reset/([0-9a-f]{64})`)

// lastResetToken extracts the raw token from the newest recovery email.
func (env *testEnv) lastResetToken(t *testing.T, email string) string {
	t.Helper()

	msg, ok := env.outbox.Last(email)
	if !ok {
		t.Fatalf("no email sent to %s", email)
	}
	m := resetLinkPattern.FindStringSubmatch(msg.Body)
	if m == nil {
		t.Fatalf("no reset link in body: %s", msg.Body)
	}
	return m[1]
}
