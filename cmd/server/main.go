package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"familytree/internal/config"
	"familytree/internal/database"
	"familytree/internal/handlers"
	"familytree/internal/identity"
	"familytree/internal/repository"
	"familytree/internal/security"
	"familytree/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.IdentityProviderURL == "" || cfg.IdentityServiceKey == "" {
		log.Fatal("IDENTITY_PROVIDER_URL and IDENTITY_SERVICE_KEY are required")
	}

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	requestRepo := repository.NewOnboardingRequestRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	userRepo := repository.NewUserRepository(db)

	ctx := context.Background()

	// Initialize services
	cipher := security.New(security.Params{Iterations: cfg.KDFIterations})
	identityClient := identity.NewClient(ctx, cfg.IdentityProviderURL, cfg.IdentityServiceKey)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if emailService.IsEnabled() {
		log.Printf("Email notifications enabled (from: %s)", cfg.SESFromEmail)
	} else {
		log.Println("Email notifications disabled")
	}

	onboardingService := service.NewOnboardingService(requestRepo, familyRepo, userRepo, identityClient, cipher, emailService)

	// Initialize handlers
	middleware := handlers.NewMiddleware(cfg.JWTSecret)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService)
	healthHandler := handlers.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	onboardingHandler.RegisterRoutes(mux, middleware)

	handler := handlers.Logging(handlers.CORS(mux))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
