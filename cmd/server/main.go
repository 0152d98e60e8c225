package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tripdispatch/internal/app"
	"tripdispatch/internal/broker"
	"tripdispatch/internal/config"
	"tripdispatch/internal/handler"
	"tripdispatch/internal/maps"
	"tripdispatch/internal/middleware"
	internalRedis "tripdispatch/internal/redis"
	"tripdispatch/internal/repository/postgres"
	"tripdispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic comes first so the database and Redis clients can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL", zap.String("db", cfg.Database.DBName))

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	publisher, err := newPublisher(cfg.Broker, logger)
	if err != nil {
		logger.Fatal("failed to connect to broker", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close broker publisher", zap.Error(err))
		}
	}()

	server, err := wireServer(db, redisClient, publisher, nrApp, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire server", zap.Error(err))
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// newPublisher selects the notification transport.
func newPublisher(cfg config.BrokerConfig, logger *zap.Logger) (broker.Publisher, error) {
	switch cfg.Kind {
	case "kafka":
		logger.Info("publishing trip events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return broker.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, func(err error) {
			logger.Warn("kafka delivery failed", zap.Error(err))
		}), nil
	case "amqp":
		logger.Info("publishing trip events to AMQP", zap.String("exchange", cfg.AMQPExchange))
		return broker.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return broker.NewLogPublisher(logger), nil
	}
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	publisher broker.Publisher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *zap.Logger,
) (*http.Server, error) {
	// Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Repositories.
	tripRepo := postgres.NewTripRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	promoRepo := postgres.NewPromotionRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	tx := postgres.NewTransactor(db)

	// Routing and geocoding stay nil without an API key; callers then have
	// to supply distances and full addresses.
	var router service.Router
	var geocoder service.Geocoder
	if cfg.Maps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.Maps.APIKey, cfg.Maps.Timeout, cfg.Maps.Region, cfg.Maps.Language)
		if err != nil {
			return nil, err
		}
		router = mapsClient
		geocoder = mapsClient
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set; routing and geocoding disabled")
	}

	// Services.
	notificationService := service.NewNotificationService(publisher, logger)
	receiptService := service.NewReceiptService(notificationService)
	pricingService := service.NewPricingService(router, promoRepo)
	candidateService := service.NewCandidateService(locationStore, cacheStore, driverRepo, vehicleRepo, tripRepo, logger, cfg.Matching.DefaultRadiusKm)
	driverService := service.NewDriverService(locationStore, cacheStore, driverRepo, vehicleRepo, logger)
	tripService := service.NewTripService(tripRepo, vehicleRepo, tx, lockStore, pricingService, notificationService, logger)
	tripService.SetGeocoder(geocoder)
	reassignmentService := service.NewReassignmentService(tripService, candidateService, logger)
	quoteService := service.NewQuoteService(candidateService, pricingService, geocoder, logger)
	ratingService := service.NewRatingService(tripRepo, ratingRepo, tx, logger)
	paymentService := service.NewPaymentService(paymentRepo, service.NewMockPSP(), tripService, receiptService, notificationService, logger)

	// Handlers.
	engine := app.NewRouter(app.RouterDeps{
		TripHandler:         handler.NewTripHandler(tripService),
		ReassignmentHandler: handler.NewReassignmentHandler(reassignmentService),
		QuoteHandler:        handler.NewQuoteHandler(quoteService, candidateService, pricingService),
		RatingHandler:       handler.NewRatingHandler(ratingService),
		PaymentHandler:      handler.NewPaymentHandler(paymentService, receiptService),
		DriverHandler:       handler.NewDriverHandler(driverService),
		Authenticator:       middleware.NewAuthenticator(cfg.Auth.JWTSecret),
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
		AllowOrigins:        cfg.Server.AllowOrigins,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
