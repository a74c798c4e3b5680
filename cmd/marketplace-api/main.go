// @title        Marketplace API
// @version      1.0
// @description  Identity and session API of the developer marketplace.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/api"
	"github.com/dweeb/marketplace/internal/core/ports"
	"github.com/dweeb/marketplace/internal/core/service"
	"github.com/dweeb/marketplace/internal/infrastructure/db"
	"github.com/dweeb/marketplace/internal/infrastructure/db/memory"
	mongostore "github.com/dweeb/marketplace/internal/infrastructure/db/mongo"
	redisstore "github.com/dweeb/marketplace/internal/infrastructure/db/redis"
	"github.com/dweeb/marketplace/internal/infrastructure/http/handlers"
	"github.com/dweeb/marketplace/internal/infrastructure/oauth"
	"github.com/dweeb/marketplace/internal/infrastructure/queue"
	"github.com/dweeb/marketplace/internal/pkg/config"
	"github.com/dweeb/marketplace/pkg/logger"
)

const (
	shutdownTimeout  = 10 * time.Second
	stateSweepPeriod = time.Minute
)

func main() {
	cfg := config.Load()

	opts := logger.OptionsFor(cfg.LogLevel, cfg.IsProd())
	opts.Service = "marketplace-api"
	log := logger.Init(opts)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("marketplace-api stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if cfg.IsProd() && cfg.UsesDefaultSecret() {
		log.Warn().Msg("NEXTAUTH_SECRET is the development default; sessions can be forged")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, driver, err := db.Open(ctx, cfg.DatabaseURL, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("close credential store")
		}
	}()
	log.Info().Str("driver", string(driver)).Msg("credential store ready")

	readiness := map[string]handlers.Pinger{"database": store}

	var (
		states    ports.StateStore
		stateKind string
	)
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		rs := redisstore.NewStateStore(client)
		defer rs.Close()
		states, stateKind = rs, "redis"
		readiness["redis"] = rs
	} else {
		ms := memory.NewStateStore(stateSweepPeriod)
		defer ms.Close()
		states, stateKind = ms, "memory"
	}

	// --- Events ---
	eventHandler := queue.Chain{queue.NewLogHandler(log)}
	if ms, ok := store.(*mongostore.CredentialStore); ok {
		eventHandler = append(eventHandler, ms.Events())
	}
	dispatcher := queue.NewDispatcher(cfg.Auth.EventWorkers, eventHandler, log)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	sessions := service.NewSessionService(cfg.NextAuthSecret, cfg.NextAuthURL, cfg.Auth.SessionMaxAge)
	authService := service.NewAuthService(store, service.NewBcryptHasher(service.DefaultPasswordCost), dispatcher, log)
	fees, err := service.NewFeeService(cfg.PlatformFeeBps)
	if err != nil {
		return err
	}

	var providers []oauth.Provider
	if cfg.GoogleEnabled() {
		providers = append(providers, oauth.NewGoogleProvider(oauth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  strings.TrimSuffix(cfg.NextAuthURL, "/") + "/api/auth/callback/google",
		}))
	}

	e := api.NewRouter(api.Deps{
		Config:     cfg,
		Log:        log,
		Auth:       authService,
		Sessions:   sessions,
		Fees:       fees,
		Events:     dispatcher,
		States:     states,
		Providers:  providers,
		Database:   string(driver),
		StateStore: stateKind,
		Readiness:  readiness,
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.NodeEnv).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}
