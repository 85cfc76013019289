package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corvusHold/seclink/internal/config"
	"github.com/corvusHold/seclink/internal/logger"
	"github.com/corvusHold/seclink/internal/metrics"
	"github.com/corvusHold/seclink/internal/platform/authn"
	"github.com/corvusHold/seclink/internal/platform/ratelimit"
	"github.com/corvusHold/seclink/internal/platform/validation"
	"github.com/corvusHold/seclink/internal/security"
	"github.com/corvusHold/seclink/internal/security/controller"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP harness",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default APP_ADDR or :8080)")
	_ = v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.WithLevel(logger.New(cfg.AppEnv), cfg.LogLevel)
	log.Info().Str("addr", cfg.AppAddr).Str("config", cfg.String()).Msg("starting seclink server")

	var rc *redis.Client
	if cfg.RedisAddr != "" {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rc.Close()
	}

	e, err := newServer(cfg, log, rc)
	if err != nil {
		return err
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.AppAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
	return nil
}

// newServer builds the echo instance with the security runtime mounted. rc
// is optional; without it rate limiting stays in memory.
func newServer(cfg config.Config, log zerolog.Logger, rc *redis.Client) (*echo.Echo, error) {
	rt, err := security.New(cfg, log)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middlewares
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Secure())
	e.Use(metrics.HTTPMiddleware())

	// Validator
	e.Validator = validation.New()

	store := ratelimit.NewMemoryStore()
	if rc != nil {
		store = ratelimit.NewRedisStoreWithClient(rc)
	}
	controller.New(rt).
		WithJWT(authn.NewJWT(cfg.JWTSigningKey)).
		WithRateLimit(store, cfg.RateLimitPerMinute).
		Register(e)

	// Health endpoint pings Redis when configured
	e.GET("/healthz", func(c echo.Context) error {
		cacheStatus := "disabled"
		if rc != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
			defer cancel()
			cacheStatus = "ok"
			if _, err := rc.Ping(ctx).Result(); err != nil {
				cacheStatus = "down"
			}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":           "ok",
			"time":             time.Now().UTC().Format(time.RFC3339),
			"cache":            cacheStatus,
			"listeners":        rt.Listeners.Len(),
			"legacy_listeners": rt.LegacyListeners.Len(),
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e, nil
}
