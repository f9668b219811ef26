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
	"github.com/shoplite/shoplite-backend/internal/pos/events"
	"github.com/shoplite/shoplite-backend/internal/pos/handler"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/internal/pos/service"
	"github.com/shoplite/shoplite-backend/pkg/cache"
	"github.com/shoplite/shoplite-backend/pkg/config"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/httputil"
	"github.com/shoplite/shoplite-backend/pkg/logger"
	"github.com/shoplite/shoplite-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("pos-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("pos-service", cfg.Server.Environment)
	log.Info().Msg("starting POS Service")

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
	publisher, err := events.NewPOSEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Connect to redis (optional, nil when not configured)
	c, err := cache.New(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if c != nil {
		defer c.Close()
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	stockService := service.NewStockService(productRepo, movementRepo, publisher, cfg.Ledger.MaxRetries, log)
	catalogService := service.NewCatalogService(productRepo, batchRepo, stockService, log)
	checkoutService := service.NewCheckoutService(checkoutRepo, productRepo, stockService, publisher, log)
	reconciler := service.NewReconciler(
		productRepo, batchRepo, notificationRepo, publisher, c,
		cfg.Reconciler.DefaultAlertDays, cfg.Reconciler.MarkAllReadCap, log,
	)

	// Initialize handlers
	productHandler := handler.NewProductHandler(catalogService, log)
	stockHandler := handler.NewStockHandler(stockService, log)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, log)
	notificationHandler := handler.NewNotificationHandler(reconciler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional background reconciliation
	var scheduler *service.ReconcileScheduler
	if cfg.Reconciler.Enabled {
		scheduler = service.NewReconcileScheduler(reconciler, cfg.Reconciler.ScanInterval, log)
		scheduler.Start(ctx)
	}

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.TerminalID) // Extract POS terminal identity from headers
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Terminal-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "pos-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
			"cache":    c.Health(r.Context()),
		})
	})

	// API routes
	r.Route("/api/v1/pos", func(r chi.Router) {
		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/lookup", productHandler.Lookup)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)

			// Batches
			r.Get("/{id}/batches", productHandler.ListBatches)
			r.Post("/{id}/batches", productHandler.ReceiveBatch)

			// Stock ledger
			r.Get("/{id}/stock", stockHandler.GetStock)
			r.Post("/{id}/stock/adjust", stockHandler.Adjust)
			r.Get("/{id}/stock/movements", stockHandler.ListMovements)
		})

		r.Put("/batches/{batchId}", productHandler.UpdateBatch)

		// Checkout routes
		r.Route("/checkouts", func(r chi.Router) {
			r.Post("/", checkoutHandler.Create)
			r.Post("/redeem", checkoutHandler.Redeem)
			r.Get("/{id}", checkoutHandler.Get)
			r.Post("/{id}/process", checkoutHandler.Process)
		})

		// Notification routes
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Post("/reconcile", notificationHandler.Reconcile)
			r.Put("/read-all", notificationHandler.MarkAllRead)
			r.Put("/{id}/read", notificationHandler.MarkRead)
		})
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

	// Stop the scheduler and any in-flight background work
	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
