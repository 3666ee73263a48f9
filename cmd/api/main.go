package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ganado360/internal/config"
	"ganado360/internal/platform/logger"
	"ganado360/internal/router"

	"golang.org/x/sync/errgroup"
)

// @title Ganado360 BFF
// @version 1.0
// @description Backend-for-frontend de Ganado360: inventario, reproducción, sanidad e invitaciones a fincas sobre el API de Ganado360.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	defer func() { _ = log.Sync() }()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.NewRouter(router.Options{Config: cfg, Logger: log}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// cubre la saga de nacimiento completa, no solo una llamada al API remoto
		WriteTimeout: cfg.HTTPWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": addr, "env": cfg.Env, "dev_mode": cfg.DevMode()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
