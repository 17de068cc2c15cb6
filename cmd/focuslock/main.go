package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "focuslock/internal/adapter/http"
	"focuslock/internal/adapter/memory"
	"focuslock/internal/adapter/payment"
	"focuslock/internal/adapter/postgres"
	"focuslock/internal/adapter/protect"
	"focuslock/internal/app"
	"focuslock/internal/config"
	"focuslock/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// store is everything the services persist, implemented by both adapters.
type store interface {
	domain.UserRepository
	domain.LockRepository
	domain.StatsRepository
	domain.FocusRepository
	domain.SettingsRepository
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "focuslock",
		Short:         "Focus-session lock server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	root.Flags().StringVar(&configPath, "config", env("FOCUSLOCK_CONFIG", "focuslock.toml"), "path to TOML config file")

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	var (
		db       store
		sessions domain.LoginSessionRepository
	)
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory storage")
		mem := memory.New()
		db, sessions = mem, mem.NewSessionRepo()
	} else {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer func() { _ = pg.Close() }()
		db, sessions = pg, postgres.NewSessionRepo(pg)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	protector := protect.Logging{}
	if err := protector.RequestPermission(ctx); err != nil {
		log.Printf("app protection unavailable: %v", err)
	}

	authSvc := app.NewAuthService(db, sessions).WithSessionTTL(cfg.SessionTTL.Duration)
	statsSvc := app.NewStatsService(db, loc)
	focusSvc := app.NewFocusService(db)
	settingsSvc := app.NewSettingsService(db)
	lockSvc := app.NewLockService(db, payment.NewSimulated(cfg.Payment.DeclinedCards), protector, cfg.FeePolicy()).
		WithStats(statsSvc).
		WithFocus(focusSvc).
		WithSettings(settingsSvc)

	oidcConfig, err := setupOIDC(ctx, cfg)
	if err != nil {
		return err
	}

	srv := adapthttp.New(adapthttp.Services{
		Auth:     authSvc,
		Lock:     lockSvc,
		Stats:    statsSvc,
		Focus:    focusSvc,
		Settings: settingsSvc,
	}, oidcConfig)
	if cfg.TrustForwardAuth {
		srv = srv.WithForwardAuth()
	}

	sweeper := app.NewCompletionSweeper(lockSvc, cfg.SweepInterval.Duration).WithLoginPurge(authSvc, time.Hour)
	go sweeper.Run(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func setupOIDC(ctx context.Context, cfg config.Config) (adapthttp.OIDCConfig, error) {
	if !cfg.OIDCEnabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.OIDC.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	log.Printf("sso enabled via %s", cfg.OIDC.Issuer)
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		PostLoginRedirect: cfg.OIDC.PostLoginRedirect,
	}, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
