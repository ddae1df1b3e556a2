package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orderportal-backend/api"
	"github.com/angelmondragon/orderportal-backend/api/routes"
	"github.com/angelmondragon/orderportal-backend/internal/auth"
	"github.com/angelmondragon/orderportal-backend/internal/cron"
	"github.com/angelmondragon/orderportal-backend/internal/orders"
	"github.com/angelmondragon/orderportal-backend/internal/settings"
	"github.com/angelmondragon/orderportal-backend/internal/users"
	"github.com/angelmondragon/orderportal-backend/pkg/auth/session"
	"github.com/angelmondragon/orderportal-backend/pkg/config"
	"github.com/angelmondragon/orderportal-backend/pkg/db"
	"github.com/angelmondragon/orderportal-backend/pkg/instance"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
	"github.com/angelmondragon/orderportal-backend/pkg/metrics"
	"github.com/angelmondragon/orderportal-backend/pkg/migrate"
	"github.com/angelmondragon/orderportal-backend/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	weekdays, err := cfg.Scheduler.Weekdays()
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	usersRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Password:       cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()), cfg.Orders.DefaultOrderTimeLimit)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:                 orders.NewRepository(dbClient.DB()),
		Tx:                   dbClient,
		Settings:             settingsService,
		Location:             loc,
		CreationLookbackDays: cfg.Orders.CreationLookbackDays,
		ProductionDays:       weekdays,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	schedulerMetrics := metrics.NewSchedulerMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	statusJob, err := cron.NewOrderStatusJob(cron.OrderStatusJobParams{
		Logger:   logg,
		Engine:   ordersService,
		Settings: settingsService,
		Metrics:  schedulerMetrics,
	})
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.OrderStatusJobName), cfg.Scheduler.LockTTL)
	if err != nil {
		return err
	}
	timer := cron.NewCronTimer(loc, logg)
	scheduler, err := cron.NewOrderScheduler(cron.SchedulerParams{
		Logger:     logg,
		Job:        statusJob,
		Settings:   settingsService,
		Timer:      timer,
		Lock:       lock,
		Metrics:    schedulerMetrics,
		Offset:     cfg.Scheduler.Offset,
		Weekdays:   weekdays,
		RunTimeout: cfg.Scheduler.RunTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Combine(err, scheduler.Stop(), timer.Stop(stopCtx))
	}()

	if cfg.Scheduler.Enabled {
		if err := scheduler.Initialize(ctx); err != nil {
			return err
		}
		sync, err := cron.NewSettingsSync(cron.SettingsSyncParams{
			Logger:    logg,
			Settings:  settingsService,
			Scheduler: scheduler,
			Interval:  cfg.Scheduler.SyncInterval,
		})
		if err != nil {
			return err
		}
		go func() { _ = sync.Run(ctx) }()
	} else {
		logg.Warn(ctx, "order scheduler disabled; only manual runs will process orders")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		sessionManager,
		authService,
		usersRepo,
		ordersService,
		settingsService,
		scheduler,
		httpMetrics,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	server := api.NewServer(addr, handler)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
