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

	"github.com/ecoride/ecoride-core/internal/cache"
	"github.com/ecoride/ecoride-core/internal/config"
	"github.com/ecoride/ecoride-core/internal/database"
	"github.com/ecoride/ecoride-core/internal/events"
	"github.com/ecoride/ecoride-core/internal/handler"
	"github.com/ecoride/ecoride-core/internal/logging"
	"github.com/ecoride/ecoride-core/internal/memstore"
	"github.com/ecoride/ecoride-core/internal/middleware"
	"github.com/ecoride/ecoride-core/internal/repository"
	"github.com/ecoride/ecoride-core/internal/scheduler"
	"github.com/ecoride/ecoride-core/internal/service"
	"github.com/ecoride/ecoride-core/pkg/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	logger := logging.NewLogger("info")
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger = logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// New Relic (optional)
	var nrApp *newrelic.Application
	if cfg.NewRelicEnabled && cfg.NewRelicLicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("new relic disabled", "error", err)
			nrApp = nil
		} else {
			logger.Info("new relic initialized")
		}
	}

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		repos  *repository.Repositories
		health = map[string]func(context.Context) error{}
	)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if cfg.DBAutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				logger.Error("schema migration failed", "error", err)
				os.Exit(1)
			}
		}
		repos = repository.NewPostgres(db.DB)
		health["database"] = db.Health
		logger.Info("connected to postgres")
	} else {
		repos = memstore.New().Repositories()
		logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Redis (optional): trust cache, scheduler lock, rate limit, idempotency, pub/sub.
	var redisDB *database.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisDB.Close()
		health["redis"] = redisDB.Health
		logger.Info("connected to redis")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	stream := handler.NewStreamHandler(repos.Rides, logger)

	// Ride events: local SSE fan-out, or Redis pub/sub so every replica's
	// streams see them, plus Kafka when brokers are configured.
	publishers := []events.Publisher{}
	var (
		scoreCache cache.TrustScoreCache
		locker     cache.Locker
	)
	if redisDB != nil {
		scoreCache = cache.NewTrustScoreCache(redisDB.Client, cfg.Trust.CacheTTL)
		locker = cache.NewRedisLocker(redisDB.Client, uuid.NewString())
		publishers = append(publishers, events.NewRedisPublisher(redisDB.Client))
		go stream.Listen(ctx, redisDB.Client)
	} else {
		publishers = append(publishers, stream)
	}
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaRideTopic))
		logger.Info("publishing ride events to kafka", "topic", cfg.KafkaRideTopic)
	}
	publisher := events.NewMulti(publishers...)
	defer publisher.Close()

	// Services
	trustService := service.NewTrustService(repos.Users, repos.Trust, scoreCache, cfg.Trust, logger)
	ledgerService := service.NewLedgerService(repos.Ledger, cfg.WalletRecent, logger)
	carbonService := service.NewCarbonService(cfg.Carbon)
	rideService := service.NewRideService(repos.Rides, repos.Users, ledgerService, trustService, carbonService, publisher, logger)
	matchingService := service.NewMatchingService(repos.Rides, repos.Users, trustService, cfg.Matching)
	subscriptionService := service.NewSubscriptionService(repos.Subscriptions, rideService, cfg.Scheduler, logger)
	predictionService := service.NewPredictionService(repos.Rides, cfg.Scheduler.Location())
	authService := service.NewAuthService(repos.Users, tokens)
	userService := service.NewUserService(repos.Users, trustService, ledgerService)
	messageService := service.NewMessageService(repos.Messages, repos.Users, repos.Rides)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	rideHandler := handler.NewRideHandler(rideService, matchingService, logger)
	walletHandler := handler.NewWalletHandler(ledgerService, logger)
	trustHandler := handler.NewTrustHandler(trustService, predictionService, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, logger)
	messageHandler := handler.NewMessageHandler(messageService, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.NewRelic(nrApp))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		services := map[string]string{}
		healthy := true
		for name, check := range health {
			if err := check(r.Context()); err != nil {
				services[name] = "down"
				healthy = false
				continue
			}
			services[name] = "up"
		}
		if !healthy {
			utils.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded", "services": services})
			return
		}
		utils.JSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "services": services})
	})
	r.Handle("/metrics", promhttp.Handler())

	var limiter *middleware.RateLimiter
	if redisDB != nil {
		limiter = middleware.NewRateLimiter(redisDB.Client, cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	}

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		authHandler.RegisterRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))
		if limiter != nil {
			r.Use(limiter.Handler)
			r.Use(middleware.NewIdempotencyMiddleware(redisDB.Client, logger).Handler)
		}
		userHandler.RegisterRoutes(r)
		rideHandler.RegisterRoutes(r)
		walletHandler.RegisterRoutes(r)
		trustHandler.RegisterRoutes(r)
		subscriptionHandler.RegisterRoutes(r)
		messageHandler.RegisterRoutes(r)
		stream.RegisterRoutes(r)
	})

	go scheduler.New(subscriptionService, locker, cfg.Scheduler.Interval, logger).Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // ride streams stay open
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
