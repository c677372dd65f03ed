package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apihandlers "github.com/arstudios/protend/internal/api/handlers"
	"github.com/arstudios/protend/internal/config"
	"github.com/arstudios/protend/internal/db"
	"github.com/arstudios/protend/internal/handlers"
	"github.com/arstudios/protend/internal/otp"
	"github.com/arstudios/protend/internal/repository"
	"github.com/arstudios/protend/internal/service"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	// 2. Initialize database connection
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBUrl)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// 3. Shared OTP store (the engine degrades to in-memory if unreachable)
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	defer redisClient.Close()

	// 4. Initialize layers
	userRepo := repository.NewUserRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	mailer := service.NewEmailService(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.FromEmail, logger)
	engine := otp.NewEngine(redisClient, mailer, logger)

	oauthCfg := service.NewGoogleOAuthConfig(
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)

	authService := service.NewAuthService(userRepo, activityRepo, engine, cfg.JWTSecret, oauthCfg, logger)
	userService := service.NewUserService(userRepo, notificationRepo, logger)
	projectService := service.NewProjectService(projectRepo, activityRepo, logger)
	adminService := service.NewAdminService(userRepo, contentRepo, activityRepo, logger)
	chatService := service.NewChatService(chatRepo, projectRepo, nil, activityRepo, logger)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	adminHandler := handlers.NewAdminHandler(adminService)
	chatHandler := handlers.NewChatHandler(chatService)
	healthHandler := apihandlers.NewHealthHandler(engine)

	// 5. Setup Gin router
	router := gin.Default()

	requireAuth := handlers.RequireAuth(authService)
	requireAdmin := handlers.RequireAdmin()

	healthHandler.RegisterRoutes(router)
	authHandler.RegisterRoutes(router)
	userHandler.RegisterRoutes(router, requireAuth)
	projectHandler.RegisterRoutes(router, requireAuth, requireAdmin)
	adminHandler.RegisterRoutes(router, requireAuth, requireAdmin)
	chatHandler.RegisterRoutes(router, requireAuth)

	// 6. Start server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
