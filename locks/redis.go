package locks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ErrLockBusy is returned when the lock could not be acquired before the
// wait budget or ctx ran out.
var ErrLockBusy = errors.New("lock busy")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease-based distributed lock.
type Redis struct {
	client  redis.UniversalClient
	prefix  string
	lease   time.Duration
	backoff time.Duration
	maxWait time.Duration
}

type RedisOption func(*Redis)

// WithPrefix sets the key namespace. Default "goaccount:lock:".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithLease sets how long a lock survives a crashed holder. Default 10s.
func WithLease(d time.Duration) RedisOption {
	return func(r *Redis) { r.lease = d }
}

// WithWait sets the initial retry delay and the total acquisition budget.
func WithWait(backoff, maxWait time.Duration) RedisOption {
	return func(r *Redis) {
		r.backoff = backoff
		r.maxWait = maxWait
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		prefix:  "goaccount:lock:",
		lease:   10 * time.Second,
		backoff: 10 * time.Millisecond,
		maxWait: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token, err := ownerToken()
	if err != nil {
		return nil, err
	}
	redisKey := r.prefix + key

	b := retry.NewExponential(r.backoff)
	b = retry.WithCappedDuration(250*time.Millisecond, b)
	b = retry.WithMaxDuration(r.maxWait, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.lease).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrLockBusy)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err()
		})
	}, nil
}

func ownerToken() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}
