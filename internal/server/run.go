package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/polyglot-tools/inflect/internal/config"
	"github.com/polyglot-tools/inflect/internal/store"
)

// Run opens the store, loads the document and serves the API on
// cfg.Server.Addr until ctx is done.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := store.OpenDB(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := New(Options{
		DocPath:        cfg.Document.Path,
		DB:             db,
		EngineOptions:  cfg.EngineOptions(logger.Named("engine")),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	if cfg.Server.Watch {
		go func() {
			if err := srv.Watch(ctx); err != nil {
				logger.Error("document watcher stopped", zap.Error(err))
			}
		}()
	}

	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return hs.Shutdown(shutdownCtx)
}
