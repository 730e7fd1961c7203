package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/inversiones/src/config"
	"github.com/username/inversiones/src/handlers"
	"github.com/username/inversiones/src/logger"
	"github.com/username/inversiones/src/parsers"
	"github.com/username/inversiones/src/processors"
	"github.com/username/inversiones/src/services"
	"github.com/username/inversiones/src/storage"
)

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				logger.L.Warn("Rate limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"remoteAddr", r.RemoteAddr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Inversiones dashboard server starting...")

	headerTable, rejected := parsers.DefaultHeaderTable().With(config.Cfg.ExtraHeaderSynonyms)
	if len(rejected) > 0 {
		logger.L.Warn("Ignoring header synonyms with unknown target fields", "entries", rejected)
	}

	logger.L.Info("Initializing file store...", "dataDir", config.Cfg.DataDir, "uploadDir", config.Cfg.UploadDir)
	store, err := storage.NewFileStore(config.Cfg.DataDir, config.Cfg.UploadDir, config.Cfg.CanonicalFile)
	if err != nil {
		logger.L.Error("Failed to initialize file store", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing report cache...", "ttl", config.Cfg.ReportCacheTTL)
	reportCache := cache.New(config.Cfg.ReportCacheTTL, 2*config.Cfg.ReportCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	portfolioService := services.NewPortfolioService(
		parsers.NewLoaderWithHeaders(headerTable),
		store,
		processors.NewSummaryProcessor(),
		processors.NewDistributionProcessor(),
		processors.NewAlertProcessor(config.Cfg.AlertTakeProfitPct, config.Cfg.AlertReviewPct),
		reportCache,
		config.Cfg.SeedSample,
	)
	if err := portfolioService.Bootstrap(); err != nil {
		// The server still starts so a valid file can be uploaded.
		logger.L.Error("Failed to load canonical file", "path", store.CanonicalPath(), "error", err)
	}

	uploadHandler := handlers.NewUploadHandler(portfolioService, config.Cfg.MaxUploadSizeBytes)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	dashboardHandler := handlers.NewDashboardHandler(portfolioService)
	transactionHandler := handlers.NewTransactionHandler(portfolioService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /{$}", dashboardHandler.HandleDashboard)
	rootMux.HandleFunc("GET /api/health", portfolioHandler.HandleHealth)
	rootMux.HandleFunc("GET /api/summary", portfolioHandler.HandleGetSummary)
	rootMux.HandleFunc("GET /api/transactions", portfolioHandler.HandleGetTransactions)
	rootMux.HandleFunc("GET /api/transactions/export", portfolioHandler.HandleExportTransactions)
	rootMux.HandleFunc("GET /api/distribution", portfolioHandler.HandleGetDistribution)
	rootMux.HandleFunc("GET /api/alerts", portfolioHandler.HandleGetAlerts)
	rootMux.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	rootMux.HandleFunc("POST /api/transactions", transactionHandler.HandleAddTransaction)
	rootMux.HandleFunc("PUT /api/transactions/{index}", transactionHandler.HandleUpdateTransaction)
	rootMux.HandleFunc("DELETE /api/transactions/{index}", transactionHandler.HandleDeleteTransaction)

	logger.L.Info("Applying global middleware...")
	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   config.Cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "If-None-Match", handlers.RequestIDHeader},
		ExposedHeaders:   []string{"ETag", "Content-Disposition", handlers.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
	limiter := rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)
	finalHandler := handlers.RequestLoggingMiddleware(corsMiddleware(rateLimitMiddleware(limiter)(rootMux)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr, "canonicalFile", store.CanonicalPath())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped gracefully.")
}
