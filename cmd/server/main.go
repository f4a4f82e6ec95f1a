package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BnBPlug/service-reservation/internal/application"
	"github.com/BnBPlug/service-reservation/internal/catalog"
	"github.com/BnBPlug/service-reservation/internal/config"
	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	reservationEvents "github.com/BnBPlug/service-reservation/internal/events"
	"github.com/BnBPlug/service-reservation/internal/handler"
	"github.com/BnBPlug/service-reservation/internal/platform/auth"
	"github.com/BnBPlug/service-reservation/internal/platform/database"
	"github.com/BnBPlug/service-reservation/internal/platform/health"
	"github.com/BnBPlug/service-reservation/internal/platform/kafka"
	"github.com/BnBPlug/service-reservation/internal/platform/logger"
	"github.com/BnBPlug/service-reservation/internal/platform/middleware"
	"github.com/BnBPlug/service-reservation/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "service-reservation"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.ReservationModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Load the property catalog
	properties, err := catalog.LoadXMLFile(cfg.Booking.CatalogPath, log)
	if err != nil {
		log.Fatal("failed to load property catalog", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessTokenTTL,
		cfg.JWTConfig.RefreshTokenTTL,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repository
	reservationRepo := repository.NewGormReservationRepository(db)

	// Workflow collaborators
	deps := reservation.Dependencies{
		Calculator: reservation.NewFixedFeeCalculator(reservation.FeeSchedule{
			CleaningFee: cfg.Booking.CleaningFee,
			ServiceFee:  cfg.Booking.ServiceFee,
			Currency:    cfg.Booking.Currency,
		}),
		Validator:     reservation.NewValidator(),
		IDs:           reservation.NewRandomIDGenerator(),
		Repository:    reservationRepo,
		MaxIDAttempts: cfg.Booking.IDMaxAttempts,
		Logger:        log.Named("workflow"),
	}

	drafts := application.NewDraftStore(cfg.Booking.DraftTTL)

	// Initialize application service
	reservationService := application.NewReservationService(
		drafts,
		properties,
		auth.NewContextIdentity(),
		deps,
		kafkaProducer,
		log,
	)

	// Sweep abandoned drafts
	sweeper, err := application.NewDraftSweeper(drafts, cfg.Booking.DraftSweepSchedule, log)
	if err != nil {
		log.Fatal("failed to schedule draft sweeper", zap.Error(err))
	}
	sweeper.Start()

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	paymentConsumer := reservationEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		reservationService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.RegisterRoutes(router)

	// Register routes
	reservationHandler := handler.NewReservationHandler(reservationService)
	reservationHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Register admin handler routes
	adminService := application.NewAdminService(reservationRepo, reservationService, log)
	adminHandler := handler.NewAdminReservationHandler(adminService)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Stop background work
	cancel()
	<-sweeper.Stop().Done()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
