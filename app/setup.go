package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/educonnect-api/api"
	"github.com/sahilchouksey/educonnect-api/config"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/router"
	"github.com/sahilchouksey/educonnect-api/services"
	"github.com/sahilchouksey/educonnect-api/services/cron"
	"github.com/sahilchouksey/educonnect-api/services/realtime"
	"github.com/sahilchouksey/educonnect-api/utils/auth"
	"github.com/sahilchouksey/educonnect-api/utils/cache"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	if err := logger.Init(getEnv.LOG_LEVEL, getEnv.LOG_FILE); err != nil {
		return err
	}
	defer logger.Sync()

	if getEnv.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		logger.Error("Check whether the %s server is running and the DB_* variables are set", getEnv.DB_DRIVER)
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		logger.Error("Failed to initialize database tables: %v", err)
		return err
	}

	// Redis is optional; without it brute force protection and approval locks are off
	redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
	if err != nil {
		logger.Warn("Failed to connect to Redis: %v. Brute force protection and approval locks are disabled.", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	var pusher services.Pusher = hub

	// Cross-instance delivery through Postgres LISTEN/NOTIFY
	if getEnv.REALTIME_PG_RELAY {
		if getEnv.DB_DRIVER != "postgres" {
			logger.Warn("REALTIME_PG_RELAY requires DB_DRIVER=postgres, using local delivery only")
		} else {
			relay := realtime.NewPGRelay(store.GetDB(), hub, database.PostgresDSN(getEnv))
			if err := relay.Start(ctx); err != nil {
				logger.Warn("Failed to start notification relay: %v", err)
			} else {
				defer relay.Close()
				pusher = relay
			}
		}
	}

	deps := router.Deps{
		Store:          store,
		JWTManager:     auth.NewJWTManager(auth.DefaultJWTConfig(getEnv.JWT_SECRET, getEnv.JWT_ISSUER)),
		Redis:          redisCache,
		Hub:            hub,
		Pusher:         pusher,
		AllowedOrigins: getEnv.ALLOWED_ORIGINS,
		RateLimit:      100,
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	if getEnv.CRON_ENABLED {
		cronManager := cron.NewCronManager(store.GetDB())
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			logger.Warn("Failed to start cron jobs: %v", err)
		} else {
			defer cronManager.Stop()
			deps.Jobs = cronManager
		}
	}

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		return server.Shutdown(shutdownTimeout)
	}
}
