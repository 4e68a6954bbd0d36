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

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/yukikurage/tripmate-api/internal/config"
	"github.com/yukikurage/tripmate-api/internal/constants"
	"github.com/yukikurage/tripmate-api/internal/database"
	"github.com/yukikurage/tripmate-api/internal/handlers"
	"github.com/yukikurage/tripmate-api/internal/middleware"
	"github.com/yukikurage/tripmate-api/internal/repository"
	"github.com/yukikurage/tripmate-api/internal/services"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tripmate",
		Short:        "TripMate API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				db, err := database.Connect(cfg)
				if err != nil {
					return err
				}
				return database.Migrate(db)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	return root
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	gin.SetMode(cfg.GinMode)
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Setup session store with Redis
	store, err := redisStore.NewStore(10, "tcp", cfg.RedisAddr(), "", []byte(cfg.SessionSecret))
	if err != nil {
		return fmt.Errorf("failed to create Redis session store: %w", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	defer redisClient.Close()

	var mailer services.Mailer
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(cfg)
	} else {
		logger.Warn("SMTP_HOST not set, password reset codes are logged instead of emailed")
		mailer = services.NewLogMailer(logger)
	}

	var objectStore services.ObjectStore = services.UnconfiguredStore{}
	if cfg.Cloudinary.Enabled() {
		cld, err := services.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			return err
		}
		objectStore = cld
	} else {
		logger.Warn("Cloudinary credentials not set, gallery uploads are disabled")
	}

	var weatherProvider services.WeatherProvider
	if cfg.OpenWeatherAPIKey != "" {
		weatherProvider = services.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, constants.WeatherTimeout)
	} else {
		logger.Warn("OPENWEATHER_API_KEY not set, weather lookups are disabled")
	}

	tokens := services.NewJWTIssuer(cfg.JWTSecret, constants.TokenTTL)
	trips := services.NewTripService(repository.NewTripRepository(db), objectStore)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         logger,
		Metrics:        middleware.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		SessionStore:   store,
		Tokens:         tokens,
		Auth: services.NewAuthService(
			repository.NewUserRepository(db),
			services.NewBcryptHasher(cfg.BcryptCost),
			tokens,
			mailer,
		),
		Trips:   trips,
		Polls:   services.NewPollService(repository.NewPollRepository(db), trips),
		Gallery: services.NewGalleryService(repository.NewGalleryRepository(db), trips, objectStore),
		Weather: services.NewWeatherService(
			weatherProvider,
			services.NewRedisWeatherCache(redisClient, cfg.WeatherCacheTTL),
		),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "version", version)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
