package appbootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"argus-console/config"
	"argus-console/core/store"
	"argus-console/core/utils"
)

const shutdownGrace = 10 * time.Second

// Run boots the account service: config, database, migrations, seed data,
// the maintenance scheduler, and the HTTP server. It blocks until SIGINT or
// SIGTERM and then drains in-flight requests.
func Run(cfgPath string) error {
	logger := utils.NewLogger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := seed(ctx, cfg, db, logger); err != nil {
		return err
	}

	rt, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}

	if cfg.Maintenance.Enabled {
		if err := rt.scheduler.Start(); err != nil {
			return fmt.Errorf("start maintenance scheduler: %w", err)
		}
		defer rt.scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := rt.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return rt.server.Shutdown(shutdownCtx)
}
