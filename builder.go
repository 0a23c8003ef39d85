package goAccount

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	internalmetrics "github.com/MrEthical07/goAccount/internal/metrics"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/locks"
	"github.com/MrEthical07/goAccount/mail"
	"github.com/MrEthical07/goAccount/password"
	"go.opentelemetry.io/otel/trace"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config

	store     AccountStore
	hasher    CredentialHasher
	signer    TokenSigner
	sender    NotificationSender
	locker    EmailLocker
	logger    *slog.Logger
	clock     func() time.Time
	tracer    trace.Tracer
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the account persistence. Required.
func (b *Builder) WithStore(store AccountStore) *Builder {
	b.store = store
	return b
}

// WithSender sets email delivery. Required. Unless Mail.SendAttempts is 1
// the sender is wrapped with bounded retry.
func (b *Builder) WithSender(sender NotificationSender) *Builder {
	b.sender = sender
	return b
}

// WithHasher replaces the hasher derived from Config.Password.
func (b *Builder) WithHasher(hasher CredentialHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithSigner replaces the jwt.Manager derived from Config.Session.
func (b *Builder) WithSigner(signer TokenSigner) *Builder {
	b.signer = signer
	return b
}

// WithLocker replaces the in-process email lock, e.g. with locks.NewRedis
// when several instances share one store.
func (b *Builder) WithLocker(locker EmailLocker) *Builder {
	b.locker = locker
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for expiry decisions and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

func (b *Builder) WithTracer(tracer trace.Tracer) *Builder {
	b.tracer = tracer
	return b
}

// WithAuditSink sets where audit events go when Config.Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("account store required")
	}
	if b.sender == nil {
		return nil, errors.New("notification sender required")
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		logger: b.logger,
		clock:  b.clock,
		tracer: b.tracer,
		locker: b.locker,
	}
	if engine.logger == nil {
		engine.logger = slog.Default()
	}
	if engine.clock == nil {
		engine.clock = time.Now
	}
	if engine.tracer == nil {
		engine.tracer = defaultTracer()
	}
	if engine.locker == nil {
		engine.locker = locks.NewMemory()
	}

	engine.sender = b.sender
	if cfg.Mail.SendAttempts > 1 {
		engine.sender = mail.NewRetrying(b.sender, cfg.Mail.SendAttempts, cfg.Mail.SendBackoff)
	}

	engine.hasher = b.hasher
	if engine.hasher == nil {
		hasher, err := newDefaultHasher(cfg.Password)
		if err != nil {
			return nil, err
		}
		engine.hasher = hasher
	}

	engine.signer = b.signer
	if engine.signer == nil {
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.Session.TTL,
			SigningMethod: jwt.SigningMethod(cfg.Session.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Session.PrivateKey),
			PublicKey:     cloneBytes(cfg.Session.PublicKey),
			Issuer:        cfg.Session.Issuer,
			Audience:      cfg.Session.Audience,
			Leeway:        cfg.Session.Leeway,
			Now:           engine.clock,
		})
		if err != nil {
			return nil, err
		}
		engine.signer = jm
	}

	engine.metrics = internalmetrics.New(internalmetrics.Config{Enabled: cfg.Metrics.Enabled})
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.flows = engine.flowDeps()

	b.built = true

	return engine, nil
}

// newDefaultHasher hashes new passwords with the configured algorithm and
// still verifies digests produced by the other one.
func newDefaultHasher(cfg PasswordConfig) (CredentialHasher, error) {
	argon, err := password.NewArgon2(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	bc, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return password.NewMulti(password.Algorithm(cfg.Algorithm), argon, bc), nil
}
