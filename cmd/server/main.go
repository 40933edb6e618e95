package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/aegisbank/ledger-engine/internal/config"
	"github.com/aegisbank/ledger-engine/internal/handler"
	"github.com/aegisbank/ledger-engine/internal/repository"
	"github.com/aegisbank/ledger-engine/internal/service"
	"github.com/aegisbank/ledger-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize store and services
	store := repository.NewStore(db)
	accountService := service.NewAccountService(store, cfg)
	transferService := service.NewTransferService(store, redisClient, cfg)
	loanService := service.NewLoanService(store, accountService, cfg)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService)
	transferHandler := handler.NewTransferHandler(transferService)
	loanHandler := handler.NewLoanHandler(loanService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(accountHandler, transferHandler, loanHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(accountHandler *handler.AccountHandler, transferHandler *handler.TransferHandler,
	loanHandler *handler.LoanHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Accounts
	api.HandleFunc("/accounts", accountHandler.Create).Methods("POST")
	api.HandleFunc("/accounts", accountHandler.List).Methods("GET")
	api.HandleFunc("/accounts/pending", accountHandler.ListPending).Methods("GET")
	api.HandleFunc("/accounts/{accountId}", accountHandler.Get).Methods("GET")
	api.HandleFunc("/accounts/{accountId}", accountHandler.Delete).Methods("DELETE")
	api.HandleFunc("/accounts/{accountId}/approve", accountHandler.Approve).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/reject", accountHandler.Reject).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/freeze", accountHandler.Freeze).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/unfreeze", accountHandler.Unfreeze).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/cancel", accountHandler.Cancel).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/deposit", accountHandler.Deposit).Methods("POST")
	api.HandleFunc("/accounts/{accountId}/transfers", transferHandler.ListByAccount).Methods("GET")
	api.HandleFunc("/accounts/{accountId}/statement", transferHandler.Statement).Methods("GET")

	// Transfers
	api.HandleFunc("/transfers", transferHandler.Create).Methods("POST")
	api.HandleFunc("/transfers/{transferId}", transferHandler.Get).Methods("GET")
	api.HandleFunc("/transfers/{transferId}", transferHandler.Update).Methods("PATCH")
	api.HandleFunc("/transfers/{transferId}", transferHandler.Delete).Methods("DELETE")
	api.HandleFunc("/transfers/{transferId}/settle", transferHandler.Settle).Methods("POST")
	api.HandleFunc("/transfers/{transferId}/reverse", transferHandler.Reverse).Methods("POST")
	api.HandleFunc("/transfers/{transferId}/cancel", transferHandler.Cancel).Methods("POST")

	// Loans
	api.HandleFunc("/loans", loanHandler.Request).Methods("POST")
	api.HandleFunc("/loans", loanHandler.List).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.Get).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.Update).Methods("PATCH")
	api.HandleFunc("/loans/{loanId}", loanHandler.Delete).Methods("DELETE")
	api.HandleFunc("/loans/{loanId}/decision", loanHandler.Decide).Methods("POST")
	api.HandleFunc("/loans/{loanId}/cancel", loanHandler.Cancel).Methods("POST")

	return router
}
