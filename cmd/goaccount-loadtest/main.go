// Command goaccount-loadtest drives the Engine with concurrent signups and
// logins against the in-memory store and a Redis email lock.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/locks"
	"github.com/MrEthical07/goAccount/mail"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/stores/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadPassword = "load-pass-1"

func main() {
	var (
		accounts    = flag.Int("accounts", 2000, "number of accounts to sign up")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "login operations")
		racers      = flag.Int("racers", 32, "concurrent verifications of one email in the contention phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 || *racers <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, ops, and racers must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer func() { _ = client.Close() }()

	store := memory.New()
	engine, err := newEngine(store, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	emails := make([]string, *accounts)
	for i := range emails {
		emails[i] = "load-" + strconv.Itoa(i) + "@example.com"
	}

	signupStats := runSignupPhase(ctx, engine, store, emails, *concurrency)
	loginStats := runLoginPhase(ctx, engine, emails, *ops, *concurrency)
	winners, contentionStats := runContentionPhase(ctx, engine, store, *racers)

	fmt.Println("---- results ----")
	printStats("signup", signupStats)
	printStats("login", loginStats)
	printStats("contention", contentionStats)
	fmt.Printf("contention: verified winners=%d (want 1)\n", winners)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("sessions issued=%d internal errors=%d\n",
		snapshot.Counters[goAccount.MetricSessionIssued],
		snapshot.Counters[goAccount.MetricInternalError])
}

func newEngine(store *memory.Store, client redis.UniversalClient) (*goAccount.Engine, error) {
	hasher, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16})
	if err != nil {
		return nil, err
	}

	cfg := goAccount.DefaultConfig()
	cfg.Session.PrivateKey = []byte("goaccount-loadtest-signing-key-32b")
	cfg.Mail.SendAttempts = 1

	return goAccount.New().
		WithConfig(cfg).
		WithStore(store).
		WithSender(mail.NewOutbox()).
		WithHasher(hasher).
		WithLocker(locks.NewRedis(client, locks.WithWait(2*time.Millisecond, 5*time.Second))).
		WithLogger(logging.Discard()).
		Build()
}

// signup registers email and verifies it with the newest stored code.
func signup(ctx context.Context, engine *goAccount.Engine, store *memory.Store, email string) error {
	if _, err := engine.Register(ctx, goAccount.RegisterRequest{Name: "Load", Email: email, Password: loadPassword}); err != nil {
		return err
	}
	code, err := newestCode(ctx, store, email)
	if err != nil {
		return err
	}
	_, err = engine.VerifyOTP(ctx, email, code)
	return err
}

func newestCode(ctx context.Context, store *memory.Store, email string) (string, error) {
	pending, err := store.ListUnverifiedByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 || pending[0].OTPCode == nil {
		return "", errors.New("no pending code")
	}
	return strconv.Itoa(*pending[0].OTPCode), nil
}

func runSignupPhase(ctx context.Context, engine *goAccount.Engine, store *memory.Store, emails []string, concurrency int) phaseStats {
	return runPhase(len(emails), concurrency, func(i int, _ *rand.Rand) error {
		return signup(ctx, engine, store, emails[i])
	})
}

func runLoginPhase(ctx context.Context, engine *goAccount.Engine, emails []string, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(_ int, r *rand.Rand) error {
		_, err := engine.Login(ctx, emails[r.Intn(len(emails))], loadPassword)
		return err
	})
}

// runContentionPhase registers one email several times and races every
// worker to verify it.
func runContentionPhase(ctx context.Context, engine *goAccount.Engine, store *memory.Store, racers int) (int64, phaseStats) {
	const email = "contended@example.com"
	for i := 0; i < 3; i++ {
		if _, err := engine.Register(ctx, goAccount.RegisterRequest{Name: "Race", Email: email, Password: loadPassword}); err != nil {
			fmt.Fprintf(os.Stderr, "contention setup: %v\n", err)
			return 0, phaseStats{}
		}
	}
	code, err := newestCode(ctx, store, email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "contention setup: %v\n", err)
		return 0, phaseStats{}
	}

	var winners int64
	stats := runPhase(racers, racers, func(int, *rand.Rand) error {
		_, err := engine.VerifyOTP(ctx, email, code)
		if err == nil {
			atomic.AddInt64(&winners, 1)
		}
		return err
	})
	return winners, stats
}

func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
