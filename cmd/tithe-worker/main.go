package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tithe/internal/amqp"
	"tithe/internal/app"
	"tithe/internal/cli"
	applog "tithe/internal/log"
	"tithe/internal/metrics"
	"tithe/internal/services"
	"tithe/internal/sheets"
	gsheet "tithe/internal/sheets/google"
	memsheet "tithe/internal/sheets/memory"
	"tithe/internal/store"
	"tithe/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting tithe-worker", applog.FieldOperation, applog.OpStartup)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	m := metrics.New()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Close()

	members, payments, err := cli.InitStores(ctx, res,
		store.WithLogger(logger),
		store.WithObserver(m))
	if err != nil {
		logger.Error("Failed to load stores", "error", err)
		os.Exit(1)
	}

	reports := services.NewReportService(members, payments, app.NewContext(cfg.Theme()), services.ReportServiceConfig{
		CacheSize: cfg.ReportCacheSize,
		CacheTTL:  cfg.ReportCacheTTL,
	}, logger, m)
	defer reports.Close()

	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memsheet.New()
		logger.Info("Google Sheets disabled - exporting to memory, no GOOGLE_SPREADSHEET_ID provided")
	}

	exporter := worker.NewExportWorker(members, payments, reports, writer, worker.Config{
		SheetName: cfg.GoogleSheetName,
		Unit:      cfg.Unit(),
	}, logger, m)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return exporter.Run(gctx, cfg.SyncInterval)
	})

	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeChanges(gctx, exporter.HandleChange)
		})
	} else {
		logger.Info("Skipping AMQP message consumption - exports run on the sync interval only")
	}

	if cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		srv := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}
