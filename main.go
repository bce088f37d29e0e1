package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-fidelity/internal/analytics"
	analytics_api "ms-fidelity/internal/analytics/api"
	"ms-fidelity/internal/auth"
	"ms-fidelity/internal/cards/card_api"
	"ms-fidelity/internal/cards/cardview"
	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/cards/db"
	"ms-fidelity/internal/cards/discovery"
	"ms-fidelity/internal/cards/enrollment"
	qr "ms-fidelity/internal/cards/qr_generator"
	rediswrap "ms-fidelity/internal/cards/redis"
	"ms-fidelity/internal/config"
	"ms-fidelity/internal/database/migrations"
	"ms-fidelity/internal/i18n"
	"ms-fidelity/internal/kafka"
	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/middleware"
	"ms-fidelity/internal/session"
	"ms-fidelity/internal/sse"
	"ms-fidelity/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func verifyConnections(cfg *config.Config, logger *logger.Logger) (*sql.DB, *bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient, err := rediswrap.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	return sqldb, bunDB, redisClient
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	level := logger.ParseLevel(cfg.LogLevel)
	logger := logger.NewLogger(cfg.LogDir, "fidelity-portal")
	defer logger.Close()
	logger.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("CONFIG", err.Error())
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("CONFIG", "Using the development JWT secret; set JWT_SECRET outside local runs")
	}
	proxies, err := middleware.NewProxyTrust(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Fatal("CONFIG", err.Error())
	}

	logger.Info("APP", "Starting Fidelity Portal initialization")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("APP", "Verifying database connections")
	sqldb, bunDB, redisClient := verifyConnections(cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	if cfg.Database.MigrationsRun {
		runner := migrations.NewRunner(sqldb, logger)
		if err := runner.MigrateUp(); err != nil {
			logger.Fatal("MIGRATE", err.Error())
		}
		logger.Info("MIGRATE", "✅ Schema up to date")
	}

	var publisher kafka.Publisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.ScanRecorded, cfg.Kafka.Topics.ScanConverted, cfg.Kafka.Topics.EnrollmentCreated}
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, topics, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		publisher = producer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, events are not published")
	}

	cardsDB := &db.DB{Bun: bunDB}
	cardsRedis := rediswrap.NewRedis(redisClient, cfg.Portal.EnrollLockTTL, cfg.Portal.PendingIntentTTL)
	metrics := middleware.NewMetrics("fidelity", logger)
	emitter := sse.NewCardEventEmitter()

	users := auth.NewBunUserStore(bunDB)
	authService := auth.NewSessionService(users, auth.NewRedisRevocations(redisClient), cfg.Auth.JWTSecret, auth.CookieConfig{
		Name:   cfg.Auth.SessionCookie,
		TTL:    cfg.Auth.SessionTTL,
		Secure: cfg.Auth.SecureCookies,
	}, logger)

	discoveryService := discovery.NewService(cardsDB, publisher, discovery.Topics{
		ScanRecorded:  cfg.Kafka.Topics.ScanRecorded,
		ScanConverted: cfg.Kafka.Topics.ScanConverted,
	}, logger)
	discoveryService.Metrics = metrics

	workflow := enrollment.NewWorkflow(cardsDB, cardsRedis, discoveryService, publisher,
		cfg.Kafka.Topics.EnrollmentCreated, cfg.Portal.EnrollReloadDelay, logger)

	// With Kafka every instance learns about new cards from the topic;
	// without it the instance that inserted the card notifies directly.
	if cfg.Kafka.Enabled {
		consumer := kafka.NewEnrollmentConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EnrollmentCreated,
			"fidelity-portal-"+utils.NewID(), logger)
		defer consumer.Close()
		go consumer.Start(ctx, emitter.EnrollmentCreated)
	} else {
		workflow.Notifier = emitter
	}

	renderer, err := cardview.NewRenderer()
	if err != nil {
		logger.Fatal("APP", err.Error())
	}

	handler, err := card_api.NewHandler(card_api.Deps{
		Catalog:   catalog.NewLoader(cardsDB),
		Workflow:  workflow,
		Discovery: discoveryService,
		Auth:      authService,
		Staff:     cardsDB,
		Codes:     qr.NewQRGenerator(qr.DefaultSize),
		Events:    emitter,
		Metrics:   metrics,
		I18n:      i18n.NewResolver(cfg.Portal.DefaultLanguage),
		Cards:     renderer,
		Stores: card_api.StoreLinks{
			AppStoreURL:  cfg.Portal.AppStoreURL,
			PlayStoreURL: cfg.Portal.PlayStoreURL,
		},
		Proxies: proxies,
		Secure:  cfg.Auth.SecureCookies,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("APP", err.Error())
	}

	sessions := &session.Manager{
		Viewers:       authService,
		Pending:       cardsRedis,
		VisitorCookie: cfg.Auth.VisitorCookie,
		Secure:        cfg.Auth.SecureCookies,
		Logger:        logger,
	}

	var staffGuard func(http.Handler) http.Handler
	if cfg.Auth.StaffAuthDisabled {
		staffGuard = auth.DevMiddleware(logger)
	} else {
		verifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
		if err != nil {
			logger.Fatal("AUTH", fmt.Sprintf("Failed to set up staff token verification: %v", err))
		}
		staffGuard = auth.Middleware(verifier, logger)
	}

	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		"auth":   {RequestsPerMinute: cfg.RateLimit.AuthPerMinute, Burst: cfg.RateLimit.Burst},
		"enroll": {RequestsPerMinute: cfg.RateLimit.EnrollPerMinute, Burst: cfg.RateLimit.Burst},
	}, logger)
	limiter.Proxies = proxies
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Sweep(10 * time.Minute)
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := sqldb.PingContext(r.Context()); err != nil {
			_ = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("unhealthy", err.Error()))
			return
		}
		_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
	})
	r.Handle("/metrics", metrics.Handler())

	handler.RegisterRoutes(r, card_api.Guards{
		Session:     sessions.Middleware,
		Staff:       staffGuard,
		AuthLimit:   limiter.Middleware("auth"),
		EnrollLimit: limiter.Middleware("enroll"),
	})
	analyticsHandler := analytics_api.NewHandler(analytics.NewService(bunDB), cardsDB, logger)
	r.Group(func(r chi.Router) {
		r.Use(staffGuard)
		analyticsHandler.RegisterRoutes(r)
	})
	logger.Info("ROUTER", "Portal routes registered under /programs, /auth, /preferences, /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Fidelity Portal running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Fidelity Portal shutdown complete")
	}
}
