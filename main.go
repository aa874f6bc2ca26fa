package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wishshare/cache"
	"wishshare/config"
	"wishshare/database"
	"wishshare/handlers"
	"wishshare/middleware"
	"wishshare/repository"
	"wishshare/scheduler"
	"wishshare/scraper"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	parserCfg := config.LoadParserConfig()
	serverCfg := config.LoadServerConfig()

	// The audit log is optional; the service runs without a database
	var (
		recorder scraper.ParseRecorder
		audit    handlers.AuditLog
		pruner   scheduler.AuditPruner
	)
	if parserCfg.DatabaseURL != "" {
		if err := database.InitDatabase(parserCfg.DatabaseURL); err != nil {
			log.Printf("⚠️ Parse audit log disabled: %v", err)
		} else if err := database.CreateTables(); err != nil {
			log.Printf("⚠️ Parse audit log disabled: %v", err)
		} else {
			repo := repository.NewParseEventRepository()
			recorder, audit, pruner = repo, repo, repo
		}
		defer database.CloseDatabase()
	}

	parseCache, err := cache.NewFromConfig(parserCfg)
	if err != nil {
		log.Printf("⚠️ Parse cache disabled: %v", err)
		parseCache = nil
	}

	var (
		resultCache scraper.ResultCache
		cacheAdmin  handlers.CacheAdmin
	)
	if parseCache != nil {
		resultCache, cacheAdmin = parseCache, parseCache
		defer parseCache.Close()
	}

	productScraper := scraper.NewProductScraper(parserCfg, resultCache, recorder)

	h := handlers.NewHandlers(productScraper, cacheAdmin, audit, parserCfg.PreviewWorkers)
	defer h.Close()

	janitor := scheduler.NewCacheJanitor(parseCache, pruner)
	if err := janitor.Start(); err != nil {
		log.Fatalf("Failed to start cache janitor: %v", err)
	}
	defer janitor.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(middleware.RateLimit(serverCfg.RateLimitPerSecond))
	h.RegisterRoutes(apiV1)

	c := cors.New(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(serverCfg.Host, serverCfg.Port),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", srv.Addr)
		log.Printf("   POST   /api/v1/og/preview - Extract product preview")
		log.Printf("   POST   /api/v1/parse-url - Extract product preview")
		log.Printf("   POST   /api/v1/parse-url/async - Queue product preview")
		log.Printf("   GET    /api/v1/tasks/{taskId} - Task status")
		log.Printf("   GET    /api/v1/parse-cache/stats - Parse cache stats")
		log.Printf("   DELETE /api/v1/parse-cache - Clear parse cache")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
	}
}
