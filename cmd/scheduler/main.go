package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/repository"
	"github.com/aegisbank/ledger-engine/internal/service"
)

func main() {
	log.Println("Starting ledger scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db)
	transferService := service.NewTransferService(store, nil, cfg)

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds())

	// Schedule tasks
	setupCronJobs(c, cfg, transferService)

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, transfers *service.TransferService) {
	// Daily job to expire stale pending transfers
	_, err := c.AddFunc(cfg.Scheduler.ExpirySpec, func() {
		log.Println("Running pending transfer expiry job...")
		expired, err := transfers.ExpirePending(context.Background(), cfg.GetPendingTransferTTL())
		if err != nil {
			log.Printf("Pending transfer expiry failed: %v", err)
			return
		}
		log.Printf("Expired %d stale pending transfers", expired)
	})
	if err != nil {
		log.Printf("Error scheduling pending transfer expiry job: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}
