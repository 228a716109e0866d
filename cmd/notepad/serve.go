package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/config"
	"github.com/dukerupert/notepad/internal/database"
	"github.com/dukerupert/notepad/internal/logging"
	"github.com/dukerupert/notepad/internal/notesapi"
	"github.com/dukerupert/notepad/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Session.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Session.DBPath, "error", err)
		return err
	}
	defer db.Close()

	api := notesapi.NewClient(notesapi.Config{
		BaseURL:     cfg.API.BaseURL,
		MutationURL: cfg.API.MutationURL,
		Timeout:     cfg.API.Timeout,
	})

	verifier, err := newVerifier(cfg, api, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(db, verifier, api, server.Options{
		SessionTTL:   cfg.Session.TTL,
		SecureCookie: cfg.Session.SecureCookie,
		TrustProxy:   cfg.HTTP.TrustProxy,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.RunCleanup(ctx, time.Hour)
	go srv.RateLimiter().Run(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.API.Timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("notepad running", "addr", "http://localhost:"+cfg.HTTP.Port,
			"api", cfg.API.BaseURL, "auth", cfg.Auth.Mode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newVerifier(cfg config.Config, api *notesapi.Client, logger *slog.Logger) (auth.Verifier, error) {
	if cfg.Auth.Mode == config.AuthModeHash {
		v, err := auth.NewHashVerifier(cfg.Auth.PasskeyHash)
		if err != nil {
			return nil, err
		}
		logger.Info("passkeys checked against local hash")
		return v, nil
	}
	return auth.NewRemoteVerifier(api), nil
}
