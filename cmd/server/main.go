// Package main runs the submission intake and lifecycle service.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/portal-umkm/submission-service/internal/app"
	"github.com/portal-umkm/submission-service/internal/app/httpapi"
	"github.com/portal-umkm/submission-service/internal/app/metrics"
	"github.com/portal-umkm/submission-service/internal/app/storage/postgres"
	"github.com/portal-umkm/submission-service/internal/config"
	"github.com/portal-umkm/submission-service/internal/logging"
	"github.com/portal-umkm/submission-service/internal/middleware"
	"github.com/portal-umkm/submission-service/internal/platform/migrations"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("server", cfg.Logging.Level, cfg.Logging.Format)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.WithError(err).Error("open database")
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := migrations.Apply(ctx, db); err != nil {
		log.WithError(err).Error("apply migrations")
		os.Exit(1)
	}

	application, err := app.New(app.Stores{Submissions: postgres.New(db)}, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	handler := buildHandler(application, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		log.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
}

// buildHandler composes the middleware chain around the REST router. The
// access guard runs before every data operation; health and metrics stay
// open.
func buildHandler(application *app.Application, cfg *config.Config, log *logging.Logger) http.Handler {
	authMW := middleware.NewAuthMiddleware([]byte(cfg.Auth.JWTSecret), log, []string{"/healthz", "/metrics"})
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)
	tracing := middleware.NewTracingMiddleware(log)

	var handler http.Handler = httpapi.NewHandler(application)
	handler = limiter.Handler(handler)
	handler = authMW.Handler(handler)
	handler = cors.Handler(handler)
	handler = metrics.InstrumentHandler(handler)
	handler = tracing.Handler(handler)
	return handler
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeSeconds > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
