package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"reportmill/internal/archive"
	"reportmill/internal/service"
	"reportmill/internal/sharepoint"
	"reportmill/migrations"
	"reportmill/pkg/cache"
	"reportmill/pkg/config"
	"reportmill/pkg/database"
	"reportmill/pkg/logger"
	"reportmill/pkg/metrics"
	"reportmill/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				logger.Log.Warn("Metrics server failed", "error", err)
			}
		}()
	}

	tokenCache, err := cache.New(cacheOptions(cfg))
	if err != nil {
		logger.Fatal("failed to init cache", "error", err)
	}
	defer tokenCache.Close()

	var repo archive.Repository

	if cfg.Database.Driver == "postgres" && cfg.Report.SaveToStorage {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := database.RunMigrations(ctx, db.Pool(), migrations.PostgresMigrations, migrations.Dir); err != nil {
				logger.Fatal("failed to run migrations", "error", err)
			}
		}

		repo = archive.NewPostgresRepository(db)
		logger.Info("Archive storage initialized", "driver", cfg.Database.Driver)

		if deleted, err := repo.DeleteExpired(ctx); err != nil {
			logger.Log.Warn("Failed to clean up expired reports", "error", err)
		} else if deleted > 0 {
			logger.Info("Expired reports removed", "count", deleted)
		}
	} else {
		logger.Log.Warn("Database not configured, running without archive")
	}

	transfer := sharepoint.NewClient(&cfg.SharePoint, tokenCache)

	logger.Info("Starting report run",
		"source", cfg.Report.SourcePath,
		"library", cfg.Report.UploadLibrary,
		"archive_enabled", repo != nil,
	)

	result, err := service.New(cfg, transfer, repo).Run(ctx)
	if err != nil {
		logger.Error("report run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Report run completed",
		"pages", result.Pages,
		"pdf_bytes", result.PDFBytes,
		"excel_copy", result.Excel,
		"archive_id", result.ArchiveID,
	)
}

func cacheOptions(cfg *config.Config) *cache.Options {
	opts := cache.DefaultOptions()
	opts.Backend = cfg.Cache.Driver
	if cfg.Cache.DefaultTTL > 0 {
		opts.DefaultTTL = cfg.Cache.DefaultTTL
	}
	if cfg.Cache.MaxEntries > 0 {
		opts.MaxEntries = cfg.Cache.MaxEntries
	}
	if cfg.Cache.Driver == cache.BackendRedis {
		opts.RedisAddr = cfg.Cache.Address()
		opts.RedisPassword = cfg.Cache.Password
		opts.RedisDB = cfg.Cache.DB
	}
	return opts
}
