package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"mastercoin/internal/amqp"
	"mastercoin/internal/backend"
	"mastercoin/internal/cache"
	"mastercoin/internal/cli"
	"mastercoin/internal/core"
	apphttp "mastercoin/internal/http"
	"mastercoin/internal/log"
	"mastercoin/internal/services"
	"mastercoin/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting mastercoin server",
		log.FieldSource, cfg.WorkbookSource,
		"port", cfg.Port,
		"amqp_enabled", cfg.AMQPEnabled())

	// Aggregation results are memoized per dataset version
	results := cache.NewLRUCache[core.Result](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(results)
	cacheManager.StartCleanup(cfg.CacheTTL)

	ledgerOpts := []services.Option{
		services.WithCache(results),
		services.WithLogger(logger),
	}

	// AMQP is optional: without it ingests are not announced and reloads
	// are only available over HTTP
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPReloadQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			amqpClient = client
			ledgerOpts = append(ledgerOpts, services.WithPublisher(amqpClient))
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue,
				"reload_queue", cfg.AMQPReloadQueue)
		}
	}

	ledger := services.NewLedger(ledgerOpts...)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid workbook source", log.FieldError, err)
		os.Exit(1)
	}
	reloader := worker.NewReloadWorker(ledger, backend.NewFactory(logger), backendCfg, logger)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		Logger:         logger,
		Reloader:       reloader,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
	})

	// A failed initial load leaves the server running but not ready
	if _, err := reloader.Reload(ctx, ""); err != nil {
		logger.Warn("Initial workbook load failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	go reloader.Run(ctx, cfg.RefreshInterval)

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeReloadRequests(ctx, reloader.HandleReloadRequest); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Reload consumer stopped", log.FieldError, err)
			}
		}()
	}

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
