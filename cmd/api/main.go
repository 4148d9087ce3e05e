package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/openbeelab/beemon/internal/apiary"
	"github.com/openbeelab/beemon/internal/auth"
	"github.com/openbeelab/beemon/internal/config"
	"github.com/openbeelab/beemon/internal/consent"
	"github.com/openbeelab/beemon/internal/device"
	"github.com/openbeelab/beemon/internal/export"
	"github.com/openbeelab/beemon/internal/hive"
	"github.com/openbeelab/beemon/internal/inspection"
	"github.com/openbeelab/beemon/internal/logger"
	"github.com/openbeelab/beemon/internal/research"
	"github.com/openbeelab/beemon/internal/server"
	"github.com/openbeelab/beemon/internal/storage"
	"github.com/openbeelab/beemon/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	zl, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	cfg, err := config.Load()
	if err != nil {
		zl.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		zl.Fatal("connect minio", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		zl.Fatal("ensure bucket", zap.Error(err))
	}

	influxClient, err := storage.NewInfluxClient(cfg.Influx)
	if err != nil {
		zl.Fatal("connect influx", zap.Error(err))
	}
	defer influxClient.Close()
	if err := storage.PingInflux(influxClient, 5*time.Second); err != nil {
		// reports degrade to zero measurements while influx is down
		zl.Warn("influx unreachable at startup", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth, zl)

	apiaryRepo := apiary.NewRepository(dbPool)
	hiveRepo := hive.NewRepository(dbPool)
	deviceRepo := device.NewRepository(dbPool)
	inspectionRepo := inspection.NewRepository(dbPool)
	consentRepo := consent.NewRepository(dbPool)
	researchRepo := research.NewRepository(dbPool)
	exportRepo := export.NewRepository(dbPool)

	queryBuilder := telemetry.NewQueryBuilder(cfg.Influx.Measurement, cfg.Influx.CountField)
	counter := telemetry.NewCounter(influxClient, cfg.Influx.Database, queryBuilder, zl)

	apiaryService := apiary.NewService(apiaryRepo)
	hiveService := hive.NewService(hiveRepo)
	deviceService := device.NewService(deviceRepo, counter)
	inspectionService := inspection.NewService(inspectionRepo)

	aggregator := research.NewAggregator(consentRepo, apiaryRepo, hiveRepo, inspectionRepo, deviceRepo, counter, zl)
	exporter := export.NewService(authRepo, apiaryRepo, hiveRepo, inspectionRepo, minioClient, exportRepo, export.Config{
		Bucket:       cfg.MinIO.Bucket,
		AppName:      cfg.Export.AppName,
		URLExpiry:    cfg.Export.URLExpiry,
		SheetMaxRows: cfg.Export.SheetMaxRows,
	}, zl)
	researchService := research.NewService(researchRepo, consentRepo, aggregator, exporter)

	router := server.NewRouter(server.Dependencies{
		Config:            cfg,
		Logger:            zl,
		DB:                dbPool,
		ObjectStore:       minioClient,
		Telemetry:         influxClient,
		AuthService:       authService,
		ApiaryService:     apiaryService,
		HiveService:       hiveService,
		DeviceService:     deviceService,
		InspectionService: inspectionService,
		ResearchService:   researchService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zl.Info("beemon API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zl.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}
}
