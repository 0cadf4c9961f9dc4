package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tithe/internal/amqp"
	"tithe/internal/app"
	"tithe/internal/cache"
	"tithe/internal/cli"
	apphttp "tithe/internal/http"
	applog "tithe/internal/log"
	"tithe/internal/metrics"
	"tithe/internal/services"
	"tithe/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	m := metrics.New()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Close()

	members, payments, err := cli.InitStores(ctx, res,
		store.WithLogger(logger),
		store.WithObserver(m))
	if err != nil {
		logger.Error("Failed to load stores", "error", err, "backend", res.Type)
		os.Exit(1)
	}
	logger.Info("Stores loaded",
		applog.FieldOperation, applog.OpLoad,
		"members", members.Len(),
		"payments", payments.Len())

	appCtx := app.NewContext(cfg.Theme())
	reports := services.NewReportService(members, payments, appCtx, services.ReportServiceConfig{
		CacheSize: cfg.ReportCacheSize,
		CacheTTL:  cfg.ReportCacheTTL,
	}, logger, m)
	defer reports.Close()

	cacheManager := cache.NewManager(logger)
	for _, c := range reports.Cleaners() {
		cacheManager.Register(c)
	}
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		publisher := services.NewChangePublisher(amqpClient, members, payments, logger, m)
		defer publisher.Close()
		logger.Info("Change notifications enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Change notifications disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:             services.NewLedger(members, payments, logger),
		Reports:            reports,
		AppCtx:             appCtx,
		Metrics:            m,
		Logger:             logger,
		Ready:              res.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.ProxyCIDRs(),
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting tithe server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"backend", res.Type)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
