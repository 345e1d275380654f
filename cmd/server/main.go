// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/plugin-marketplace/internal/cache"
	"github.com/javajoker/plugin-marketplace/internal/config"
	"github.com/javajoker/plugin-marketplace/internal/database"
	"github.com/javajoker/plugin-marketplace/internal/i18n"
	"github.com/javajoker/plugin-marketplace/internal/metrics"
	"github.com/javajoker/plugin-marketplace/internal/middleware"
	"github.com/javajoker/plugin-marketplace/internal/router"
	"github.com/javajoker/plugin-marketplace/internal/services"
	"github.com/javajoker/plugin-marketplace/internal/storage"
	"github.com/javajoker/plugin-marketplace/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogging(cfg)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	blobs, err := storage.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize blob storage")
	}

	// The featured cache is optional; without redis every read hits the database.
	var catalogCache services.CatalogCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, running without catalog cache")
		} else {
			defer redisClient.Close()
			catalogCache = cache.NewCatalogCache(redisClient, time.Duration(cfg.Redis.FeaturedTTL)*time.Second)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auditLogger := middleware.NewAuditLogger(db)
	rateLimiters := middleware.NewRateLimiters(cfg.RateLimit)
	defer rateLimiters.Stop()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(router.Dependencies{
		DB:           db,
		Config:       cfg,
		Blobs:        blobs,
		CatalogCache: catalogCache,
		Metrics:      metrics.NewMetrics(registry),
		AuditLogger:  auditLogger,
		RateLimiters: rateLimiters,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":           cfg.Server.Port,
			"environment":    cfg.Environment,
			"storage_driver": cfg.Storage.Driver,
			"catalog_cache":  catalogCache != nil,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	// Flush audit entries for requests that finished before shutdown
	auditLogger.Wait()

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
