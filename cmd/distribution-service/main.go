package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/agrimed/agrimed-backend/internal/distribution/events"
	"github.com/agrimed/agrimed-backend/internal/distribution/handler"
	"github.com/agrimed/agrimed-backend/internal/distribution/repository"
	"github.com/agrimed/agrimed-backend/internal/distribution/service"
	"github.com/agrimed/agrimed-backend/pkg/config"
	"github.com/agrimed/agrimed-backend/pkg/database"
	"github.com/agrimed/agrimed-backend/pkg/httputil"
	"github.com/agrimed/agrimed-backend/pkg/logger"
	"github.com/agrimed/agrimed-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("distribution-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("distribution-service", cfg.Server.Environment)
	log.Info().Msg("starting Distribution Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	pub, err := messaging.NewPublisher(rmq, messaging.ExchangeDistributionEvents, "distribution-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	eventPublisher := events.NewPublisher(pub, log)

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	// Initialize services
	calculator := service.NewQuantityCalculator()
	scorer := service.NewMedicineScorer()
	recommendationService := service.NewRecommendationService(
		submissionRepo, catalogRepo, calculator, scorer,
		eventPublisher, cfg.Approval.ExpiryWarningDays, log,
	)
	approvalService := service.NewApprovalService(
		submissionRepo, catalogRepo, service.ActorPermissionChecker{},
		eventPublisher, cfg.Approval.MaxBatchSize, log,
	)

	// Initialize handlers
	recommendationHandler := handler.NewRecommendationHandler(recommendationService, calculator, cfg.Approval.MaxAlternatives, log)
	approvalHandler := handler.NewApprovalHandler(approvalService, log)
	submissionHandler := handler.NewSubmissionHandler(submissionRepo, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "distribution-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Protected API endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Auth(cfg.JWT.Secret, log))

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/{id}", submissionHandler.Get)
			r.Get("/{id}/recommendation", recommendationHandler.Generate)
			r.Post("/{id}/decision", approvalHandler.Decide)
			r.Post("/bulk-decision", approvalHandler.BulkDecide)
		})

		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/quantity", recommendationHandler.CalculateQuantity)
		})

		r.Get("/medicines/usage-summary", approvalHandler.UsageSummary)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
