package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var locker persistence.Locker
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, ticket number lock degrades to process-local", zap.Error(err))
		locker = persistence.NewLocalLocker()
	} else {
		locker = persistence.NewRedisLocker(redis.Client)
	}

	files, err := storage.NewLocalStorage(cfg.Storage.AttachmentDir, cfg.Storage.MaxAttachmentMB)
	if err != nil {
		logger.Fatal("failed to init attachment storage", zap.Error(err))
	}

	store := repository.NewStore(pg.PoolHandle())
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, store.Users)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users)

	slaService := service.NewSlaService(store.SlaPolicies)
	assignmentService := service.NewAssignmentService(store.Users, store.Tickets, store.Lookups)
	allocator := service.NewTicketNumberAllocator(locker, cfg.Ticket.NumberLockTTL(), cfg.Ticket.NumberLockWait())

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:       store,
		Repos:       store.Repositories,
		Sla:         slaService,
		Assigner:    assignmentService,
		Allocator:   allocator,
		Authorizer:  service.NewRoleAuthorizer(store.Users),
		Dispatcher:  dispatcher,
		Files:       files,
		Logger:      logger,
		PageSize:    cfg.Ticket.PageSize,
		LogPageSize: cfg.Ticket.ActivityLogPageSize,
	})
	catalogService := service.NewCatalogService(store.Lookups, store.Departments)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		AuthMiddleware: authMiddleware,
		Users:          store.Users,
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
