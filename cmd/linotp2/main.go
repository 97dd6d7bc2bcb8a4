package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codeenigma/linotp2/internal/cache"
	"github.com/codeenigma/linotp2/internal/config"
	httpx "github.com/codeenigma/linotp2/internal/http"
	otpctrl "github.com/codeenigma/linotp2/internal/http/controllers/otp"
	"github.com/codeenigma/linotp2/internal/http/middlewares"
	"github.com/codeenigma/linotp2/internal/http/router"
	otpsvc "github.com/codeenigma/linotp2/internal/http/services/otp"
	"github.com/codeenigma/linotp2/internal/linotp"
	"github.com/codeenigma/linotp2/internal/metrics"
	"github.com/codeenigma/linotp2/internal/observability/logger"
	"github.com/codeenigma/linotp2/internal/rate"
	"github.com/codeenigma/linotp2/internal/session"
	"github.com/codeenigma/linotp2/internal/state"
)

var version = "dev"

func main() {
	// .env is optional; system env wins either way.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:     "linotp2",
		Short:   "OTP second-factor gateway for LinOTP-style validation servers",
		Version: version,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("CONFIG_PATH", ""), "path to YAML config (env CONFIG_PATH)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	var checkUser, checkOTP string
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "One-shot validation call against the configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cfgPath, checkUser, checkOTP)
		},
	}
	checkCmd.Flags().StringVar(&checkUser, "user", "", "username to validate")
	checkCmd.Flags().StringVar(&checkOTP, "otp", "", "one-time password")
	_ = checkCmd.MarkFlagRequired("user")
	_ = checkCmd.MarkFlagRequired("otp")

	root.AddCommand(serveCmd, checkCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       envOr("LOG_LEVEL", "info"),
		ServiceName: "linotp2-gateway",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cacheClient.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store state.Store
	var pgStore *state.PGStore
	switch cfg.State.Driver {
	case "postgres":
		pgStore, err = state.NewPGStore(ctx, cfg.State.Postgres.DSN, cfg.StateTTL())
		if err != nil {
			return err
		}
		defer pgStore.Close()
		store = pgStore
	default:
		store = state.NewCacheStore(cacheClient, cfg.StateTTL())
	}

	sessions := session.NewManager(cacheClient, cfg.SessionTTL())
	guard := otpsvc.NewSessionGuard(sessions)

	deps := otpsvc.Deps{
		Store:        store,
		Guard:        guard,
		Validation:   cfg.ValidationConfig(),
		AttributeMap: cfg.AttributeMap(),
		UIDAttribute: cfg.LinOTP.UIDAttribute,
		EntryURL:     cfg.Challenge.EntryURL,
		MaxAttempts:  cfg.Challenge.MaxAttempts,
	}
	controllers := otpctrl.New(
		otpsvc.NewChallengeService(deps),
		otpsvc.NewLoginService(deps),
		guard,
	)

	metricsHandler, err := metrics.Register(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Controllers: controllers,
		Session: middlewares.SessionConfig{
			MaxAge: int(cfg.SessionTTL().Seconds()),
			Secure: cfg.Session.CookieSecure,
		},
		LoginLimiter:   buildLimiter(cfg, cacheClient, cfg.Rate.Login.Limit, cfg.LoginRateWindow()),
		VerifyLimiter:  buildLimiter(cfg, cacheClient, cfg.Rate.Verify.Limit, cfg.VerifyRateWindow()),
		MetricsHandler: metricsHandler,
	})

	srv := httpx.NewServer(cfg.Server.Addr, handler)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gateway listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("validation_server", cfg.LinOTP.Server),
			logger.String("state_driver", cfg.State.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return httpx.Shutdown(srv, 10*time.Second)
	})
	if pgStore != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.StateTTL())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := pgStore.Cleanup(ctx); err != nil {
						log.Warn("state cleanup failed", logger.Err(err))
					}
				}
			}
		})
	}

	return g.Wait()
}

func buildLimiter(cfg *config.Config, c cache.Client, limit int, window time.Duration) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	if rc, ok := c.(interface{ Raw() *redis.Client }); ok {
		return rate.NewRedisLimiter(rc.Raw(), "rl:", limit, window)
	}
	return rate.NewMemoryLimiter(limit, window)
}

func check(cfgPath, user, otp string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: "dev", Level: envOr("LOG_LEVEL", "info")})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := linotp.NewClient(cfg.ValidationConfig())
	out := client.Validate(ctx, user, otp)

	switch out.Kind {
	case linotp.KindAllowed:
		fmt.Println("allowed")
		for name, values := range out.Attributes {
			fmt.Printf("  %s = %v\n", name, values)
		}
		return nil
	case linotp.KindDenied:
		return fmt.Errorf("denied: the server rejected the OTP")
	default:
		return fmt.Errorf("server error: %v", out.Err)
	}
}
