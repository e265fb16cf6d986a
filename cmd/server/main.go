package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"Tutter/internal/api/middleware"
	"Tutter/internal/api/routes"
	"Tutter/internal/auth"
	"Tutter/internal/config"
	"Tutter/internal/core/accounts"
	"Tutter/internal/core/changes"
	"Tutter/internal/core/documents"
	"Tutter/internal/db/migrations"
	postgresRepo "Tutter/internal/db/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	if err := migrations.UpPostgres(db); err != nil {
		return err
	}
	logger.Info("migrations completed")

	schemas, err := documents.LoadSchemas(cfg.SchemaDir)
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	issuer, err := auth.NewIssuer([]byte(cfg.JWTSecret), "tutter", cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token issuer: %w", err)
	}

	// Initialize repositories and services
	hub := changes.NewHub(changes.DefaultBuffer, logger)
	documentRepo := postgresRepo.NewDocumentRepository(db)
	accountRepo := postgresRepo.NewAccountRepository(db)
	documentService := documents.NewService(documentRepo, schemas, hub, logger)
	accountService := accounts.NewService(accountRepo, documentRepo, issuer, logger)
	authMiddleware := middleware.NewAuthMiddleware(issuer, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(routes.CORSMiddleware(cfg.CORSOrigins))
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	r.Use(rateLimiter.Middleware)

	routes.RegisterAuthRoutes(r, accountService)
	routes.RegisterStoreRoutes(r, documentService, hub, authMiddleware, routes.OriginChecker(cfg.CORSOrigins), logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("tutter server started", "port", cfg.Port)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}
	return nil
}
