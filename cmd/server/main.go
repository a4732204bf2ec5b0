package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/eventreg/backend/internal/config"
	"github.com/eventreg/backend/internal/database"
	"github.com/eventreg/backend/internal/database/migrations"
	"github.com/eventreg/backend/internal/handlers"
	"github.com/eventreg/backend/internal/jobs"
	"github.com/eventreg/backend/internal/middleware"
	"github.com/eventreg/backend/internal/routes"
	"github.com/eventreg/backend/internal/services/audit"
	"github.com/eventreg/backend/internal/services/notify"
	"github.com/eventreg/backend/internal/services/review"
	"github.com/eventreg/backend/internal/services/submission"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	store := submission.NewStore(db)
	recorder := audit.NewRecorder(db)

	dispatcher := notify.NewDispatcher(
		notify.NewSendGridProvider(cfg.SendGrid),
		notify.NewSMTPProvider(cfg.SMTP),
	)
	dispatcher.Start(2)

	reviewService := review.NewService(store, recorder, dispatcher)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	// Initialize handlers
	submissionHandler := handlers.NewSubmissionHandler(store, cfg.Registration)
	adminHandler := handlers.NewAdminHandler(store, reviewService, recorder)
	authHandler := handlers.NewAuthHandler(db, cfg.JWT, recorder)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Register routes
	routes.RegisterHealthRoutes(router)
	routes.RegisterPublicRoutes(router, submissionHandler, rateLimiter)
	routes.RegisterAdminRoutes(router, authHandler, adminHandler, rateLimiter, cfg.JWT)

	// Start keep-alive pinger
	keepAlive := jobs.NewKeepAlive(cfg.KeepAlive)
	keepAlive.Start()

	// Start server
	srv := startServer(router, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	keepAlive.Stop()
	rateLimiter.Stop()
	dispatcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, port string) *http.Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", port)
	return srv
}
