package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-engine/internal/api/http"
	"github.com/spec-kit/sla-engine/internal/api/http/handlers"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/calendar"
	"github.com/spec-kit/sla-engine/internal/config"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	"github.com/spec-kit/sla-engine/internal/sla"
	"github.com/spec-kit/sla-engine/internal/sweeper"
	"github.com/spec-kit/sla-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	holidayRepo := repository.NewHolidayRepository(pool)
	matrixRepo := repository.NewMatrixRepository(pool)
	directoryRepo := repository.NewUserDirectory(pool)

	dispatcher := events.NewInMemoryDispatcher()
	resolver := calendar.NewResolver(holidayRepo)
	calculator := sla.NewCalculator(resolver)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		PolicyRepo:  policyRepo,
		HistoryRepo: historyRepo,
		Resolver:    resolver,
		Calculator:  calculator,
		Dispatcher:  dispatcher,
	})
	policyService := service.NewPolicyService(policyRepo, holidayRepo, matrixRepo)
	reportService := service.NewReportService(ticketRepo, historyRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Directory:   directoryRepo,
		Notifier:    service.NewDispatcherNotifier(dispatcher),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	sweepLock := sweeper.NewRedisLock(redis.Client, cfg.Sweeper.LockKey, cfg.Sweeper.LockTTL())
	sweep := sweeper.New(sweeper.Dependencies{
		TicketRepo:  ticketRepo,
		PolicyRepo:  policyRepo,
		HistoryRepo: historyRepo,
		MatrixRepo:  matrixRepo,
		Executor:    escalationService,
		Lock:        sweepLock,
		Metrics:     metrics,
		Logger:      logger,
	})
	if cfg.Sweeper.Enabled {
		if err := sweep.Start(cfg.Sweeper.CronSpec); err != nil {
			logger.Fatal("failed to start sweeper", zap.Error(err))
		}
		defer sweep.Stop()
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:         handlers.NewTicketsHandler(ticketService),
		Policies:        handlers.NewPoliciesHandler(policyService),
		Reports:         handlers.NewReportsHandler(reportService),
		Admin:           handlers.NewAdminHandler(sweep),
		AuthMiddleware:  authMiddleware,
		Metrics:         metrics,
		AdminAPIKeyHash: cfg.Auth.AdminAPIKeyHash,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
