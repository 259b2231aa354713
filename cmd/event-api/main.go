package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/di"
	"github.com/prohmpiriya/event-planner/internal/handler"
	"github.com/prohmpiriya/event-planner/pkg/config"
	"github.com/prohmpiriya/event-planner/pkg/database"
	"github.com/prohmpiriya/event-planner/pkg/kafka"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/middleware"
	"github.com/prohmpiriya/event-planner/pkg/mongodb"
	pkgredis "github.com/prohmpiriya/event-planner/pkg/redis"
	"github.com/prohmpiriya/event-planner/pkg/telemetry"
)

const serviceName = "event-api"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Event API...")

	ctx := context.Background()

	// Initialize OpenTelemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Telemetry initialization failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// The event store is required; the selected driver must connect
	var (
		db    *database.PostgresDB
		mongo *mongodb.Client
	)
	switch cfg.EventStore.Driver {
	case config.DriverPostgres:
		db, err = connectPostgres(ctx, cfg)
		if err != nil {
			appLog.Fatal("Database connection failed", zap.Error(err))
		}
		defer db.Close()
		appLog.Info("Database connected", zap.String("host", cfg.EventDatabase.Host))
	case config.DriverMongo:
		mongo, err = connectMongo(ctx, cfg)
		if err != nil {
			appLog.Fatal("MongoDB connection failed", zap.Error(err))
		}
		defer mongo.Close(context.Background())
		appLog.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))
	}

	// Redis and Kafka are optional, the API runs without them
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = connectRedis(ctx, cfg)
		if err != nil {
			appLog.Warn("Redis connection failed, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(ctx, &kafka.ProducerConfig{
			Brokers:       cfg.Kafka.Brokers,
			ClientID:      cfg.Kafka.ClientID,
			MaxRetries:    3,
			RetryInterval: time.Second,
		})
		if err != nil {
			appLog.Warn("Kafka connection failed, changelog streaming disabled", zap.Error(err))
		} else {
			defer producer.Close()
			appLog.Info("Kafka producer connected", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	}

	// Build dependency injection container
	containerCfg := &di.ContainerConfig{
		Driver:         cfg.EventStore.Driver,
		DB:             db,
		Mongo:          mongo,
		Redis:          redisClient,
		Producer:       producer,
		ChangeLogTopic: cfg.Kafka.ChangeLogTopic,
		UploadDir:      cfg.Upload.Dir,
		MaxUploadSize:  cfg.Upload.MaxSize,
		Logger:         appLog,
	}
	container, err := di.NewContainer(ctx, containerCfg)
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply middlewares
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(serviceName))
	router.Use(middleware.RequestLogger(appLog))
	router.Use(gin.Recovery())

	var postMiddleware []gin.HandlerFunc
	if redisClient != nil {
		postMiddleware = append(postMiddleware, middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  redisClient,
			Logger: appLog,
		}))
	}

	router.Static("/uploads", cfg.Upload.Dir)
	handler.Register(router, container.Handlers(), postMiddleware...)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		appLog.Info("Event API listening", zap.String("addr", addr), zap.String("driver", cfg.EventStore.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	appLog.Info("Server exited gracefully")
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*database.PostgresDB, error) {
	if err := cfg.ValidateEventDatabase(); err != nil {
		return nil, err
	}
	dbCfg := database.DefaultPostgresConfig()
	dbCfg.Host = cfg.EventDatabase.Host
	dbCfg.Port = cfg.EventDatabase.Port
	dbCfg.User = cfg.EventDatabase.User
	dbCfg.Password = cfg.EventDatabase.Password
	dbCfg.Database = cfg.EventDatabase.DBName
	dbCfg.SSLMode = cfg.EventDatabase.SSLMode
	dbCfg.MaxConns = int32(cfg.EventDatabase.MaxOpenConns)
	dbCfg.MinConns = int32(cfg.EventDatabase.MaxIdleConns)
	dbCfg.MaxConnLifetime = cfg.EventDatabase.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.EventDatabase.ConnMaxIdleTime
	dbCfg.EnableTracing = cfg.OTel.Enabled
	return database.NewPostgres(ctx, dbCfg)
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongodb.Client, error) {
	mongoCfg := mongodb.DefaultConfig()
	mongoCfg.URI = cfg.MongoDB.URI
	mongoCfg.Database = cfg.MongoDB.Database
	mongoCfg.ConnectTimeout = cfg.MongoDB.ConnectTimeout
	return mongodb.NewClient(ctx, mongoCfg)
}

func connectRedis(ctx context.Context, cfg *config.Config) (*pkgredis.Client, error) {
	redisCfg := pkgredis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	return pkgredis.NewClient(ctx, redisCfg)
}
