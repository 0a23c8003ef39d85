package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/locks"
	"github.com/MrEthical07/goAccount/mail"
	otelexport "github.com/MrEthical07/goAccount/metrics/export/otel"
	promexport "github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/reminders"
	"github.com/MrEthical07/goAccount/stores/memory"
	"github.com/MrEthical07/goAccount/stores/postgres"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the account HTTP API",
		Long: `Serve the account HTTP API. Without --database.url accounts live in
memory; without --mail.host emails are written to the log.`,
		RunE: runServe,
	}
	registerServeFlags(cmd.Flags())
	return cmd
}

// deps is everything serve owns and must release.
type deps struct {
	engine  *goAccount.Engine
	loans   reminders.Store
	sender  mail.Sender
	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path, cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Service: "goaccount",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close()

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	if cfg.Metrics.Enabled {
		h, err := promexport.Handler(d.engine)
		if err != nil {
			return oops.Code("METRICS_INIT_FAILED").Wrap(err)
		}
		router.Handle(cfg.Metrics.Path, h).Methods(http.MethodGet)

		exp, err := otelexport.NewExporter(otel.GetMeterProvider().Meter("github.com/MrEthical07/goAccount"), d.engine)
		if err != nil {
			return oops.Code("METRICS_INIT_FAILED").Wrap(err)
		}
		defer func() { _ = exp.Close() }()
	}

	httpapi.New(d.engine,
		httpapi.WithLogger(logger),
		httpapi.WithSecureCookie(cfg.HTTP.SecureCookie),
	).Mount(router)

	if cfg.Reminders.Enabled {
		job, err := reminders.NewJob(d.loans, d.sender, cfg.reminderConfig(), reminders.WithLogger(logger))
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}
		go job.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVE_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

func buildDeps(ctx context.Context, cfg AppConfig, logger *slog.Logger) (*deps, error) {
	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return nil, err
	}

	d := &deps{}
	builder := goAccount.New().
		WithConfig(engineCfg).
		WithLogger(logger).
		WithAuditSink(goAccount.NewSlogSink(logger))

	if cfg.Database.URL != "" {
		if cfg.Database.AutoMigrate {
			if err := migrateUp(cfg.Database.URL); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		builder.WithStore(postgres.NewAccountStore(pool))
		d.loans = postgres.NewLoanStore(pool)
	} else {
		logger.Warn("no database configured; accounts are kept in memory")
		builder.WithStore(memory.New())
		d.loans = reminders.NewMemoryStore()
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			d.close()
			return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Redis.Addr).Wrap(err)
		}
		d.closers = append(d.closers, func() { _ = client.Close() })
		builder.WithLocker(locks.NewRedis(client))
	}

	if cfg.Mail.Host != "" {
		smtp, err := mail.NewSMTP(cfg.smtpConfig())
		if err != nil {
			d.close()
			return nil, oops.Code("CONFIG_INVALID").With("field", "mail").Wrap(err)
		}
		d.sender = smtp
	} else {
		d.sender = mail.NewConsole(logger, false)
	}
	builder.WithSender(d.sender)

	engine, err := builder.Build()
	if err != nil {
		d.close()
		return nil, oops.Code("ENGINE_INIT_FAILED").Wrap(err)
	}
	d.engine = engine
	d.closers = append(d.closers, engine.Close)
	return d, nil
}
