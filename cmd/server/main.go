package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/sifan077/PulseTrack/config"
	appmodel "github.com/sifan077/PulseTrack/internal/app/model"
	apprepository "github.com/sifan077/PulseTrack/internal/app/repository"
	appserver "github.com/sifan077/PulseTrack/internal/app/server"
	appservice "github.com/sifan077/PulseTrack/internal/app/service"
	"github.com/sifan077/PulseTrack/internal/infra/logger"
	infraNATS "github.com/sifan077/PulseTrack/internal/infra/nats"
	infraPostgres "github.com/sifan077/PulseTrack/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/PulseTrack/internal/infra/prometheus"
	infraRedis "github.com/sifan077/PulseTrack/internal/infra/redis"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.Int("port", cfg.App.Port),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Strings("allowed_origins", cfg.App.Origins()),
	)

	if cfg.App.AdminToken == "" {
		log.Warn("ADMIN_TOKEN is not set; dashboard endpoints will reject every request")
	}

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Event{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis successfully")
	} else {
		log.Info("Redis not configured, rate limiting is process-local")
	}

	var js nats.JetStreamContext
	if cfg.NATS.Host != "" {
		natsConn, jetStream, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()
		js = jetStream
		log.Info("Connected to NATS successfully")

		consumer := appservice.NewEventConsumer(js, log)
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start event consumer", zap.Error(err))
		}
	} else {
		log.Info("NATS not configured, event fan-out disabled")
	}

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Config:    cfg.App,
		Events:    apprepository.NewEventRepository(gormDB),
		Summaries: apprepository.NewSummaryRepository(pool),
		Redis:     redisClient,
		JetStream: js,
	})

	if err := server.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
