package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "mailapi/backend/internal/transport/http"
)

const healthLogInterval = time.Minute

// serve exposes the probes and metrics until ctx is cancelled.
func (a *app) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	listen := fs.String("listen", ":9154", "listen address")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}

	if a.cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Health:   a.health,
		Gatherer: a.registry,
		Metrics:  a.metrics,
		Logger:   a.log,
	})

	httpServer := &http.Server{
		Addr:              *listen,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.log.Info("starting HTTP server", zap.String("address", *listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(healthLogInterval)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				for name, status := range a.health.CheckHealth() {
					a.log.Debug("health", zap.String("component", name), zap.String("status", status))
				}
			}
		}
	})

	group.Go(func() error {
		<-groupCtx.Done()
		a.log.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("server exited cleanly")
	return nil
}
