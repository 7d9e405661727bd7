package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fitness-booking-backend/config"
	"fitness-booking-backend/internal/api"
	"fitness-booking-backend/internal/booking"
	"fitness-booking-backend/internal/db"
	"fitness-booking-backend/internal/notification"
	"fitness-booking-backend/internal/seed"
	"fitness-booking-backend/internal/store"
	"fitness-booking-backend/internal/timezone"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load(".env")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	setupLogger(cfg.Log)
	logrus.WithField("path", configPath).Info("configuration loaded")

	if err := timezone.SetDefault(cfg.Studio.DefaultTimezone); err != nil {
		logrus.Fatalf("invalid default timezone: %v", err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}
	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seed.Run(ctx, appStore, cfg.Studio.ClassesFile); err != nil {
		logrus.Fatalf("failed to load initial classes: %v", err)
	}

	var (
		webpushOptions *webpush.Options
		pool           *notification.WorkerPool
		opts           []booking.Option
	)
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		opts = append(opts, booking.WithNotifier(pool))
		logrus.WithField("workers", cfg.WorkerPool.Size).Info("push notifications enabled")
	} else {
		logrus.Info("VAPID keys not configured; push notifications disabled")
	}

	bookingSvc := booking.NewService(appStore, opts...)
	router := api.NewRouter(appStore, bookingSvc, webpushOptions, cfg.Server)

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           http.TimeoutHandler(router, requestTimeout, `{"detail":"Request timed out"}`),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logrus.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server Shutdown: %v", err)
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("server gracefully stopped")
}

func setupLogger(cfg config.LogConfig) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.WithField("level", cfg.Level).Warn("unknown log level; using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}
