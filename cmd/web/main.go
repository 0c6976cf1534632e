package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripsync/portal/internal/adapters/cache"
	"github.com/tripsync/portal/internal/adapters/events"
	"github.com/tripsync/portal/internal/adapters/storage"
	"github.com/tripsync/portal/internal/api/handlers"
	"github.com/tripsync/portal/internal/api/routes"
	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/providers"
	"github.com/tripsync/portal/internal/infrastructure/clients/postgres"
	"github.com/tripsync/portal/internal/infrastructure/clients/redis"
	"github.com/tripsync/portal/internal/infrastructure/clients/tripapi"
	"github.com/tripsync/portal/internal/infrastructure/observability"
	"github.com/tripsync/portal/pkg/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis backs the client store, the event bus, or both
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("connected to Redis")
	}

	var store providers.StorageProvider
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		store = storage.NewRedisStore(redisClient)
	case config.StoragePostgres:
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()

		pgStore := storage.NewPostgresStore(pgClient)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare client store table")
		}
		store = pgStore
	default:
		store = storage.NewMemoryStore()
	}
	store = storage.Instrument(store, cfg.Storage.Backend, metrics)
	log.Info().Str("backend", cfg.Storage.Backend).Msg("client store ready")

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
	} else {
		eventBus = events.NewMemoryEventBus()
	}
	defer eventBus.Close()

	api := tripapi.NewClient(cfg.TripAPI.BaseURL,
		tripapi.WithTimeout(cfg.TripAPI.Timeout),
		tripapi.WithRetryAttempts(cfg.TripAPI.RetryAttempts),
	)

	// Initialize services
	catalog := cache.NewPackageCache(api, store, cfg.Cache.PackageTTL, metrics)

	cacheInvalidationService := services.NewCacheInvalidationService(catalog, eventBus)
	if err := cacheInvalidationService.Start(); err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation service")
	} else {
		defer cacheInvalidationService.Stop()
	}

	go services.NewCacheWarmingService(catalog).StartPeriodicWarming(ctx, cfg.Cache.WarmInterval)

	carousel := services.NewCarousel(cfg.Cache.CarouselInterval)
	go carousel.Run(ctx)

	bookingService := services.NewBookingService(api, catalog, services.NewPaymentService(), metrics)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.NewAuthService(api))
	catalogHandler := handlers.NewCatalogHandler(services.NewCatalogService(catalog, carousel))
	bookingHandler := handlers.NewBookingHandler(bookingService)
	dashboardHandler := handlers.NewDashboardHandler(
		services.NewTravelerService(bookingService),
		services.NewAgentService(api, eventBus, cfg.App.CommissionRate),
		services.NewAdminService(api, eventBus),
	)

	router := routes.NewRouter(authHandler, catalogHandler, bookingHandler, dashboardHandler, store, routes.Options{
		AllowedOrigins: cfg.App.AllowedOrigins,
		SecureCookies:  cfg.App.SecureCookies,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("tripapi", cfg.TripAPI.BaseURL).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
