package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bingehouse/internal/ratelimit"
	"bingehouse/internal/usertoken"
	"bingehouse/internal/util"
	"bingehouse/services/chain/internal/bootstrap"
	"bingehouse/services/chain/internal/config"
	"bingehouse/services/chain/internal/server"
)

const defaultShutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		util.InitLogger("info")
		util.Fatal("failed to load config", "err", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	dataStore, closeStore, err := bootstrap.OpenStore(cfg)
	if err != nil {
		util.Fatal("failed to open store", "err", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	appCore, err := bootstrap.NewApp(cfg, dataStore)
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		util.Fatal("invalid trusted proxies", "err", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RateLimitPerMinute, time.Minute, ratelimit.Options{
			Password: cfg.RedisPassword,
			Prefix:   "bingehouse:ratelimit:chain",
		})
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
		defer limiter.Close()
	}

	var verifier *usertoken.Verifier
	if cfg.JWTSecret != "" {
		leeway, _ := config.ParseDuration(cfg.JWTLeeway, "jwtLeeway")
		verifier, err = usertoken.NewVerifier(usertoken.Config{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Leeway:   leeway,
		})
		if err != nil {
			util.Fatal("failed to init token verifier", "err", err)
		}
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TokenVerifier:  verifier,
		TrustedProxies: trusted,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("chain server listening", "addr", addr, "store", cfg.StoreDriver, "provider", cfg.GenerationProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	timeout, _ := config.ParseDuration(cfg.ShutdownTimeout, "shutdownTimeout")
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	if err := appCore.Close(shutdownCtx); err != nil {
		logger.Error("drain conversation persistence", "err", err)
	}
	slog.Info("chain server stopped")
}
