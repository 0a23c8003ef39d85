package mail

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrInvalidMessage marks failures that retrying cannot fix.
var ErrInvalidMessage = errors.New("invalid mail message")

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Console logs messages instead of sending them.
type Console struct {
	logger   *slog.Logger
	withBody bool
}

// NewConsole logs through logger. withBody includes the rendered HTML, which
// contains codes and reset links, so enable it only on development hosts.
func NewConsole(logger *slog.Logger, withBody bool) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger, withBody: withBody}
}

func (c *Console) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := validateHeaders(to, subject); err != nil {
		return err
	}
	attrs := []any{"to", to, "subject", subject}
	if c.withBody {
		attrs = append(attrs, "body", htmlBody)
	}
	c.logger.InfoContext(ctx, "email", attrs...)
	return nil
}

// Retrying retries transient delivery failures.
type Retrying struct {
	next     Sender
	attempts uint64
	base     time.Duration
}

// NewRetrying makes at most attempts delivery attempts, starting with base
// delay and doubling.
func NewRetrying(next Sender, attempts int, base time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return &Retrying{next: next, attempts: uint64(attempts), base: base}
}

func (r *Retrying) Send(ctx context.Context, to, subject, htmlBody string) error {
	b := retry.WithMaxRetries(r.attempts-1, retry.NewExponential(r.base))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := r.next.Send(ctx, to, subject, htmlBody)
		if err == nil || errors.Is(err, ErrInvalidMessage) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Outbox records messages in memory. It is used by tests and by the serve
// command's dry-run mode.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	fail     error
}

// Message is one captured email.
type Message struct {
	To      string
	Subject string
	Body    string
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

// FailWith makes every later Send return err. nil restores delivery.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}

func (o *Outbox) Send(_ context.Context, to, subject, htmlBody string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.messages = append(o.messages, Message{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Last returns the newest message sent to to.
func (o *Outbox) Last(to string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].To == to {
			return o.messages[i], true
		}
	}
	return Message{}, false
}

func validateHeaders(values ...string) error {
	for _, v := range values {
		if v == "" || strings.ContainsAny(v, "\r\n") {
			return ErrInvalidMessage
		}
	}
	return nil
}
