package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberarchives/BLF-Photon-Bot/internal/accounts"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/authcode"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/config"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/httpapi"
	"github.com/cyberarchives/BLF-Photon-Bot/internal/manager"
)

func serveCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the management API and bot sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.json", "Path to the configuration file")
	return cmd
}

func runServe(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	pool, err := accounts.Load(cfg.AccountsFile)
	if err != nil {
		return err
	}
	log.Info("account pool loaded", "file", cfg.AccountsFile, "accounts", pool.Remaining())

	mgr, err := manager.New(cfg, pool, authcode.New(cfg.AuthCodeURL), log)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.SetupRoutes(mgr, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("management api listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
