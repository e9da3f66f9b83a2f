package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookingdesk/internal/audit"
	"bookingdesk/internal/booking"
	"bookingdesk/internal/connect"
	"bookingdesk/internal/events"
	"bookingdesk/internal/httpapi"
	"bookingdesk/internal/inflight"
	"bookingdesk/internal/metrics"
	"bookingdesk/internal/payment"
	"bookingdesk/internal/webhook"
	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/config"
	"bookingdesk/pkg/db"
	"bookingdesk/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	var guard inflight.Guard = inflight.NewMemoryGuard()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		guard = inflight.NewRedisGuard(rdb, cfg.ActionLockTTL)
		logger.Info("in-flight guard uses redis", zap.String("addr", cfg.Redis.Addr))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	be := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	auditRepo := audit.NewRepository(conn)
	eventsRepo := events.NewRepository(conn)

	orchestrator := &payment.Orchestrator{
		Backend:             be,
		Guard:               guard,
		Timeline:            eventsRepo,
		Metrics:             m,
		Logger:              logger.Named("payment"),
		PublishableKey:      cfg.Stripe.PublishableKey,
		ConfirmationPath:    cfg.ConfirmationPath,
		DefaultJurisdiction: cfg.DefaultTaxJurisdiction,
	}
	connectHandlers := connect.Handlers{
		Accounts: be,
		Interval: cfg.Stripe.ConnectPollInterval,
		Ceiling:  cfg.Stripe.ConnectPollCeiling,
		Logger:   logger.Named("connect"),
	}
	if cfg.Stripe.SecretKey != "" {
		orchestrator.Confirmer = payment.NewStripeConfirmer(cfg.Stripe.SecretKey, nil)
		connectHandlers.Checker = connect.NewStripeAccountChecker(cfg.Stripe.SecretKey, nil)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set: server-side confirmation and connect status disabled")
	}

	var webhooks *webhook.Handler
	if cfg.Stripe.WebhookSecret != "" {
		webhooks = &webhook.Handler{
			Secret:  cfg.Stripe.WebhookSecret,
			DB:      conn,
			Metrics: m,
			Logger:  logger.Named("webhook"),
		}
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:      cfg,
		Logger:   logger.Named("http"),
		Gatherer: reg,
		Bookings: &booking.Service{
			Backend:  be,
			Guard:    guard,
			Audit:    auditRepo,
			Timeline: eventsRepo,
			Metrics:  m,
			Logger:   logger.Named("booking"),
		},
		Payments: orchestrator,
		Connect:  connectHandlers,
		Webhooks: webhooks,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	// Long-polling connect status requests need a little longer than plain calls.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
