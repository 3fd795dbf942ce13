package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/advisorkit/portfolio-backend/internal/api"
	"github.com/advisorkit/portfolio-backend/internal/config"
	"github.com/advisorkit/portfolio-backend/internal/database"
	"github.com/advisorkit/portfolio-backend/internal/engine"
	"github.com/advisorkit/portfolio-backend/internal/marketdata"
	"github.com/advisorkit/portfolio-backend/internal/repository"
	"github.com/advisorkit/portfolio-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Apply migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create repositories
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Shared engine components
	cache := engine.NewSeriesCache()
	converter := engine.CurrencyConverter{
		HomeCurrency:    cfg.Portfolio.HomeCurrency,
		ForeignCurrency: cfg.Portfolio.ForeignCurrency,
		FallbackRate:    cfg.Portfolio.FallbackFxRate,
	}
	reporter := engine.LogReporter{}

	var vault *marketdata.TokenVault
	if cfg.MarketData.FernetKey != "" {
		vault, err = marketdata.NewTokenVault(cfg.MarketData.FernetKey)
		if err != nil {
			log.Fatalf("Failed to initialize token vault: %v", err)
		}
	}

	// Create services
	systemService := service.NewSystemService(db)
	accountService := service.NewAccountService(accountRepo)
	transactionService := service.NewTransactionService(transactionRepo, accountRepo, cache)
	loader := service.NewDataLoaderService(transactionRepo, priceRepo)
	portfolioService := service.NewPortfolioService(loader, accountRepo, cache, converter, reporter)
	priceService := service.NewPriceService(priceRepo, cache)
	marketDataService := service.NewMarketDataService(
		marketdata.NewClient(cfg.MarketData.BaseURL),
		priceRepo,
		transactionRepo,
		settingRepo,
		vault,
		cache,
		cfg.MarketData.FxPair,
		cfg.MarketData.SyncSchedule,
	)

	// Start the scheduled market data sync
	if err := marketDataService.StartScheduler(); err != nil {
		log.Fatalf("Failed to start market data scheduler: %v", err)
	}
	defer marketDataService.StopScheduler()

	// Create router
	router := api.NewRouter(systemService, accountService, transactionService, portfolioService, priceService, marketDataService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
