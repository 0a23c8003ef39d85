package audit

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Redacted replaces metadata values whose key names a credential.
const Redacted = "[redacted]"

// secretKeys are metadata key fragments that must never reach a sink: the
// verification code, the raw recovery token and any password.
var secretKeys = []string{"otp", "code", "token", "password", "secret"}

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type queued struct {
	ctx   context.Context
	event Event
}

// Dispatcher hands account audit events to a sink from a single worker
// goroutine. A nil Dispatcher is valid and discards everything.
type Dispatcher struct {
	cfg       Config
	sink      Sink
	ch        chan queued
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	delivered atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the worker. It returns nil when cfg.Enabled is false.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan queued, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case q := <-d.ch:
			d.deliver(q)
		case <-d.done:
			for {
				select {
				case q := <-d.ch:
					d.deliver(q)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(q queued) {
	d.sink.Emit(q.ctx, q.event)
	d.delivered.Add(1)
}

// Emit queues event after redacting credential metadata. The sink receives a
// context that keeps ctx's values (trace and client details) but not its
// cancellation, since delivery happens after the request returns.
//
// With DropIfFull a full buffer increments the dropped counter instead of
// blocking; otherwise Emit waits for space, ctx, or Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	q := queued{ctx: context.WithoutCancel(ctx), event: Redact(event)}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- q:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- q:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
	}
}

// Close stops the worker after flushing queued events. It is idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}

// Redact returns event with every credential-bearing metadata value replaced
// by Redacted. The input map is not modified.
func Redact(event Event) Event {
	if len(event.Metadata) == 0 {
		return event
	}
	var out map[string]string
	for k, v := range event.Metadata {
		if !isSecretKey(k) {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(event.Metadata))
			for k2, v2 := range event.Metadata {
				out[k2] = v2
			}
		}
		if v != "" {
			out[k] = Redacted
		}
	}
	if out != nil {
		event.Metadata = out
	}
	return event
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
