package main

import (
	"context"
	"log"
	"os"

	"research-registry-api/config"
	"research-registry-api/controllers"
	"research-registry-api/middleware"
	"research-registry-api/models"
	"research-registry-api/monitor"
	"research-registry-api/routes"
	"research-registry-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logFile, logWriter := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	defer config.Logger.Sync()

	if settings.JWTSecret == "" {
		config.Logger.Fatal("JWT_SECRET is required")
	}

	// Initialize database
	config.InitDB()
	if err := models.AutoMigrate(config.DB); err != nil {
		config.Logger.Fatal("failed to migrate database", zap.Error(err))
	}

	storage, err := services.NewPhotoStorageFromSettings(context.Background(), settings)
	if err != nil {
		config.Logger.Fatal("failed to create S3 client", zap.Error(err))
	}
	if storage != nil {
		controllers.SetPhotoStorage(storage)
	} else {
		config.Logger.Warn("S3 not configured, photo uploads disabled")
	}

	scheduler, err := services.NewDatasetImportScheduler(settings, services.NewDatasetImportJobService(config.DB))
	if err != nil {
		config.Logger.Fatal("failed to schedule dataset import", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Start()
		defer scheduler.Stop()
		config.Logger.Info("scheduled dataset import enabled", zap.String("schedule", settings.ImportCronSchedule))
	}

	if settings.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})
	router.Use(middleware.CORSMiddleware())

	monitor.RegisterMonitorRoutes(router)
	routes.SetupRoutes(router)

	if err := os.MkdirAll("./uploads", os.ModePerm); err != nil {
		config.Logger.Warn("failed to create upload directory", zap.Error(err))
	}

	config.Logger.Info("server starting",
		zap.String("port", settings.ServerPort),
		zap.String("db_driver", settings.DBDriver),
		zap.String("environment", settings.Environment))
	if err := router.Run(":" + settings.ServerPort); err != nil {
		config.Logger.Fatal("failed to start server", zap.Error(err))
	}
}
