package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "microblog/internal/adapter/http"
	"microblog/internal/adapter/sqlstore"
	"microblog/internal/app"
	"microblog/internal/config"
	"microblog/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	store, err := sqlstore.Open(sqlstore.Config{
		Driver:  cfg.StorageDriver,
		DSN:     cfg.DSN(),
		Timeout: cfg.StorageTimeout,
	})
	if err != nil {
		log.Error("store open failed", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	authSvc := app.NewAuthService(store)
	sessionSvc := app.NewSessionService([]byte(cfg.SessionSecret), cfg.SessionTTL)
	contentSvc := app.NewContentService(store, store, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var oidcCfg *adapthttp.OIDCConfig
	if cfg.SSOEnabled() {
		oidcCfg, err = adapthttp.NewOIDC(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
		if err != nil {
			log.Error("oidc setup failed", "issuer", cfg.OIDCIssuer, "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: adapthttp.New(authSvc, sessionSvc, contentSvc, oidcCfg, log).Handler(),
	}

	go func() {
		log.Info("listening", "addr", cfg.Addr, "driver", cfg.StorageDriver, "sso", cfg.SSOEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
