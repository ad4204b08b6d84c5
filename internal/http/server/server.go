package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/propmanager/internal/config"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

// Run sirve hasta que ctx se cancela. Después drena los requests en vuelo
// (hasta server.shutdown_timeout) y recién ahí cierra el pool.
func Run(ctx context.Context, cfg *config.Config, app *App) error {
	log := logger.From(ctx).With(logger.Component("server"))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		app.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", logger.Any("timeout", cfg.Server.ShutdownTimeout))
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(sctx)
	if err != nil {
		log.Warn("graceful shutdown incomplete", logger.Err(err))
	}
	app.Close()
	log.Info("stopped")
	return err
}
