package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	"github.com/caseflow/imagestore/internal/api"
	"github.com/caseflow/imagestore/pkg/imagestore"
	storeconfig "github.com/caseflow/imagestore/pkg/imagestore/config"
)

func main() {
	serverConfig, env, err := loadServerConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Fail fast on an unreachable catalog database instead of surfacing
	// it on the first upload.
	if serverConfig.CatalogType == "postgres" {
		if err := storeconfig.PingPostgres(serverConfig.DatabaseURL, serverConfig.DBSchema); err != nil {
			log.Fatalf("Failed to reach catalog database: %v", err)
		}
	}

	svc, err := serverConfig.BuildService(logger)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	tokenAuth := jwtauth.New("HS256", []byte(env.JWTSecret), nil)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: routes(svc, tokenAuth, serverConfig),
	}

	go func() {
		slog.Info("Image store server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"storage_backend", serverConfig.StorageBackend.Type,
			"catalog", serverConfig.CatalogType,
			"shared_lookup", serverConfig.SharedLookup)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server exiting")
}

func routes(svc imagestore.Service, tokenAuth *jwtauth.JWTAuth, cfg *storeconfig.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "environment": "%s", "storage_backend": "%s"}`,
			cfg.Environment, cfg.StorageBackend.Type)
	})

	filesHandler := api.NewFilesHandler(svc, tokenAuth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/files", filesHandler.Routes())
	})

	return r
}
