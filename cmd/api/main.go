package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shared-access-core/internal/adapters/auth/odin"
	pg "shared-access-core/internal/adapters/storage/postgres"
	lite "shared-access-core/internal/adapters/storage/sqlite"
	"shared-access-core/internal/platform/config"
	"shared-access-core/internal/platform/logger"
	"shared-access-core/internal/ports/auth"
	"shared-access-core/internal/router"

	"github.com/spf13/pflag"
)

// @title Shared Access Core API
// @version 1.0
// @description Acceso compartido a una cuenta (owner, support, delivery, hogar) con invitaciones, sesiones, detección de conflictos y auditoría atribuida.
// @BasePath /
func main() {
	configPath := pflag.String("config", os.Getenv("CONFIG_FILE"), "ruta al archivo YAML de configuración")
	addr := pflag.String("addr", "", "dirección de escucha (pisa PORT)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})

	if err := run(cfg, *addr, log); err != nil {
		log.Error("server stopped", logger.Fields{"error": err})
		os.Exit(1)
	}
}

func run(cfg config.Config, addr string, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verifier auth.AuthVerifier // nil = modo dev (X-Debug-User-ID)
	if cfg.OdinEnabled() {
		client, err := odin.NewClient(odin.Config{
			BaseURL: cfg.Odin.BaseURL,
			APIKey:  cfg.Odin.APIKey,
		})
		if err != nil {
			return fmt.Errorf("odin client: %w", err)
		}
		verifier = odin.NewVerifier(client)
	} else {
		log.Warn("odin not configured, using debug headers", nil)
	}

	db, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if addr == "" {
		addr = cfg.Addr()
	}
	srv := &http.Server{
		Addr: addr,
		Handler: router.NewRouter(router.Options{
			Config:       cfg,
			Logger:       log,
			AuthVerifier: verifier,
			DB:           db,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.Fields{"addr": addr, "storage": string(cfg.Storage)})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	case config.StorageSQLite:
		db, err := lite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, nil
	}
}
