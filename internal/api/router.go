package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/advisorkit/portfolio-backend/internal/api/handlers"
	custommiddleware "github.com/advisorkit/portfolio-backend/internal/api/middleware"
	"github.com/advisorkit/portfolio-backend/internal/config"
	"github.com/advisorkit/portfolio-backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	accountService *service.AccountService,
	transactionService *service.TransactionService,
	portfolioService *service.PortfolioService,
	priceService *service.PriceService,
	marketDataService *service.MarketDataService,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/account", func(r chi.Router) {
			accountHandler := handlers.NewAccountHandler(accountService)
			r.Get("/", accountHandler.Accounts)
			r.Post("/", accountHandler.CreateAccount)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", accountHandler.GetAccount)
				r.Put("/", accountHandler.UpdateAccount)
				r.Delete("/", accountHandler.DeleteAccount)
			})
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(transactionService)
			r.Get("/", transactionHandler.AllTransactions)
			r.Post("/", transactionHandler.CreateTransaction)

			r.Route("/account/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.TransactionsPerAccount)
			})

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
			r.Get("/holdings", portfolioHandler.Holdings)
			r.Get("/history", portfolioHandler.History)
			r.Get("/accounts", portfolioHandler.AccountTotals)
		})

		priceHandler := handlers.NewPriceHandler(priceService, marketDataService)
		r.Route("/price", func(r chi.Router) {
			r.Post("/import", priceHandler.ImportPrices)
			r.Post("/sync", priceHandler.Sync)
			r.Get("/status", priceHandler.ProviderStatus)
			r.Post("/token", priceHandler.StoreProviderToken)
			r.Get("/{ticker}", priceHandler.Prices)
		})
		r.Route("/fx", func(r chi.Router) {
			r.Get("/", priceHandler.FxRates)
			r.Post("/import", priceHandler.ImportFxRates)
		})
	})

	return r
}
