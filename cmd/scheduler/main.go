package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bitfantasy/novaboard-scheduler/internal/aiadvisor"
	"github.com/bitfantasy/novaboard-scheduler/internal/clock"
	"github.com/bitfantasy/novaboard-scheduler/internal/config"
	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/emailer"
	"github.com/bitfantasy/novaboard-scheduler/internal/eventbus"
	"github.com/bitfantasy/novaboard-scheduler/internal/factoryintake"
	"github.com/bitfantasy/novaboard-scheduler/internal/ganttrenderer"
	"github.com/bitfantasy/novaboard-scheduler/internal/gateway"
	"github.com/bitfantasy/novaboard-scheduler/internal/httpapi"
	"github.com/bitfantasy/novaboard-scheduler/internal/middleware"
	"github.com/bitfantasy/novaboard-scheduler/internal/notifier"
	"github.com/bitfantasy/novaboard-scheduler/internal/orchestrator"
	"github.com/bitfantasy/novaboard-scheduler/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting novaboard-scheduler service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := domain.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	rdb := initRedis(cfg.Redis)

	minioClient, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		zapLogger.Fatal("Failed to init MinIO client", zap.Error(err))
	}

	shiftStartHour, shiftStartMin, err := parseShiftClock(cfg.Clock.ShiftStart)
	if err != nil {
		zapLogger.Fatal("Failed to parse clock.shift_start", zap.Error(err))
	}
	shiftEndHour, shiftEndMin, err := parseShiftClock(cfg.Clock.ShiftEnd)
	if err != nil {
		zapLogger.Fatal("Failed to parse clock.shift_end", zap.Error(err))
	}
	clk := clock.New(shiftStartHour, shiftStartMin, shiftEndHour, shiftEndMin)

	gw := gateway.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.Username, cfg.Gateway.Password, cfg.Gateway.Timeout, cfg.Gateway.MaxRetries, rdb, zapLogger)
	advisor := aiadvisor.New(cfg.AIAdvisor.BaseURL, cfg.AIAdvisor.APIKey, cfg.AIAdvisor.Model, cfg.AIAdvisor.Timeout)
	renderer := ganttrenderer.New(minioClient, cfg.MinIO.Bucket)
	st := store.New(db)

	orch := orchestrator.New(gw, clk, advisor, renderer, st, zapLogger)

	telegramClient := notifier.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	mailer := emailer.New(emailer.Config{
		Host:       cfg.SMTP.Host,
		Port:       cfg.SMTP.Port,
		User:       cfg.SMTP.User,
		Password:   cfg.SMTP.Password,
		From:       cfg.SMTP.From,
		Recipients: cfg.SMTP.Recipients,
	})

	hub := eventbus.NewHub(zapLogger)

	handlers := &httpapi.Handlers{
		Schedule: httpapi.NewScheduleHandler(orch, gw, st, telegramClient, renderer, mailer, zapLogger),
		Webhook:  httpapi.NewWebhookHandler(orch, telegramClient, renderer, mailer, zapLogger),
	}
	intake := factoryintake.NewHandler(gw, st, telegramClient, zapLogger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	httpapi.RegisterRoutes(router, handlers, hub, cfg.JWT.Secret)
	router.POST("/factory/failure", intake.Handle)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // disabled: the dashboard's SSE stream is long-lived
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// parseShiftClock parses an "HH:MM" shift boundary from config.
func parseShiftClock(hhmm string) (hour, min int, err error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", hhmm)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", hhmm, err)
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", hhmm, err)
	}
	return hour, min, nil
}
