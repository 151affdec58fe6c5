package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/literie-pos/auth"
	"github.com/diewo77/literie-pos/internal/config"
	"github.com/diewo77/literie-pos/internal/db"
	"github.com/diewo77/literie-pos/internal/jobs"
	"github.com/diewo77/literie-pos/internal/services"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	dbConn, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := db.Setup(dbConn, cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding completed successfully")
		return
	}

	if err := db.Setup(dbConn, cfg); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := db.Seed(dbConn, cfg.App); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if cfg.App.SessionSecret == "" && !cfg.App.Dev {
		log.Fatalf("SESSION_SECRET is required outside dev mode")
	}
	auth.SetSecret(cfg.App.SessionSecret)

	// Sessions of deactivated sellers stop working at their next request.
	sellers := services.NewSellerService(dbConn)
	auth.SetSellerVerifier(sellers.Active)

	appHandler := NewApp(dbConn, cfg)

	scheduler, err := jobs.NewScheduler(cfg.Wizard.PurgeSchedule, appHandler.Sessions, cfg.Wizard.SessionTTL)
	if err != nil {
		log.Fatalf("Scheduler: %v", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v, db=%s)", cfg.Server.Port, cfg.App.Dev, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	scheduler.Stop()
	log.Println("Server stopped gracefully")
}
