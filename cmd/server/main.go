package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pray3m/hyteno-fullstack-todo/docs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pray3m/hyteno-fullstack-todo/internal/auth"
	"github.com/pray3m/hyteno-fullstack-todo/internal/cache"
	"github.com/pray3m/hyteno-fullstack-todo/internal/config"
	"github.com/pray3m/hyteno-fullstack-todo/internal/db"
	"github.com/pray3m/hyteno-fullstack-todo/internal/handler"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/repository"
	"github.com/pray3m/hyteno-fullstack-todo/internal/router"
	"github.com/pray3m/hyteno-fullstack-todo/internal/service"
	"github.com/pray3m/hyteno-fullstack-todo/internal/upload"
)

// @title Todo Manager API
// @version 1.0
// @description Multi-user todo API with JWT authentication, role-based authorization, attachments, and notifications.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Notification{},
			&model.Todo{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Todo{},
		&model.Notification{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	uploader, err := upload.NewDiskUploader(cfg.UploadDir, "/uploads")
	if err != nil {
		log.Fatalf("uploader init: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	todoRepo := repository.NewTodoRepository(gormDB)
	notificationRepo := repository.NewNotificationRepository(gormDB)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	notificationService := service.NewNotificationService(notificationRepo)
	authService := service.NewAuthService(userRepo, jwtService, notificationService)
	userService := service.NewUserService(userRepo, cacheClient)
	todoService := service.NewTodoService(todoRepo, userRepo, uploader, cacheClient, cfg.MaxUploadBytes)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	todoHandler := handler.NewTodoHandler(todoService)
	userHandler := handler.NewUserHandler(userService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Register routes
	router.Register(
		e,
		cfg,
		userService,
		authHandler,
		todoHandler,
		userHandler,
		notificationHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
