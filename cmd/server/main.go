package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital-directory/internal/adapters/http/middleware"
	"hospital-directory/internal/adapters/http/routes"
	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/config"
	"hospital-directory/internal/core/services"
	"hospital-directory/internal/pkg/password"

	"github.com/gofiber/fiber/v2"

	_ "hospital-directory/docs" // Swagger docs
)

// @title Hospital Directory API
// @version 1.0
// @description Doctor and patient accounts with a doctor-managed hospital directory.

// @contact.name API Support
// @contact.email support@hospital-directory.example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
// @description Session token set by /users/login.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			log.Printf("⚠️ Failed to close database: %v", err)
		}
	}()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	userRepo := repositories.NewUserRepository(db)

	// Seed demo data (dev only)
	if cfg.IsDev() && cfg.SeedDemo {
		seeder := config.NewSeeder(userRepo, repositories.NewHospitalRepository(db), password.NewHasher(cfg.BcryptCost))
		if err := seeder.Run(context.Background()); err != nil {
			log.Printf("⚠️ Warning: Failed to seed demo data: %v", err)
		}
	}

	// Start Cron Service for expired reset code cleanup (hourly)
	cronService := services.NewCronService(userRepo)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Hospital Directory API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
