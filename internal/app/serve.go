package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// shutdownTimeout bounds how long in-flight requests get after ctx is done
const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP API on the configured port until ctx is done, then
// shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", a.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log := a.Logger.WithField("component", "server")
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
