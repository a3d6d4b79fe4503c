package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-crm/meridian/internal/admin"
	"github.com/meridian-crm/meridian/internal/app"
	"github.com/meridian-crm/meridian/internal/appointments"
	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/authgw"
	"github.com/meridian-crm/meridian/internal/automations"
	"github.com/meridian-crm/meridian/internal/contacts"
	"github.com/meridian-crm/meridian/internal/deals"
	"github.com/meridian-crm/meridian/internal/integration"
	"github.com/meridian-crm/meridian/internal/invoices"
	"github.com/meridian-crm/meridian/internal/leads"
	"github.com/meridian-crm/meridian/internal/platform/cache"
	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/tenancy"
	"github.com/meridian-crm/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	provider, err := authgw.NewJWTProvider(
		[]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret),
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, "meridian")
	if err != nil {
		logger.Error("init token provider", slog.Any("error", err))
		os.Exit(1)
	}
	resolver := tenancy.NewResolver(provider, logger, cfg.IsProduction())

	markers := tenancy.NewRedisMarkerStore(redisClient, cfg.ImpersonationTTL)
	admins := tenancy.NewSuperAdminRepository(pool)
	tenants := tenancy.NewTenantRepository(pool)
	impersonation := tenancy.NewImpersonation(markers, admins, tenants, logger)
	guard := tenancy.NewGuard(resolver, tenancy.NewProfileRepository(pool), impersonation, logger)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	automationRepo := automations.NewRepository(pool)
	engine := automations.NewEngine(automationRepo, queueClient, logger)

	contactSvc := contacts.NewService(contacts.NewRepository(pool))
	dealSvc := deals.NewService(deals.NewRepository(pool), engine)
	hooks := integration.NewHooks(contactSvc, dealSvc)
	leadSvc := leads.NewService(leads.NewRepository(pool), hooks, engine)
	invoiceSvc := invoices.NewService(invoices.NewPGRepository(pool), shared.NewIdempotencyStore(pool), engine)
	appointmentSvc := appointments.NewService(appointments.NewRepository(pool))
	automationSvc := automations.NewService(automationRepo)

	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(pool)), resolver)
	adminHandler := admin.NewHandler(logger, resolver, impersonation, tenants, shared.NewAuditLogger(pool))
	jobsHandler := jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Guard:               guard,
		AuthHandler:         authHandler,
		AdminHandler:        adminHandler,
		ContactsHandler:     contacts.NewHandler(logger, contactSvc),
		LeadsHandler:        leads.NewHandler(logger, leadSvc),
		DealsHandler:        deals.NewHandler(logger, dealSvc),
		InvoicesHandler:     invoices.NewHandler(logger, invoiceSvc),
		AppointmentsHandler: appointments.NewHandler(logger, appointmentSvc),
		AutomationsHandler:  automations.NewHandler(logger, automationSvc),
		JobsHandler:         jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
