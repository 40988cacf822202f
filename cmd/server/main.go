package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ainside/licensing-api/internal/config"
	"github.com/ainside/licensing-api/internal/handler"
	"github.com/ainside/licensing-api/internal/handler/middleware"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/service"
	"github.com/ainside/licensing-api/internal/signing"
	"github.com/ainside/licensing-api/internal/storage/memstorage"
	"github.com/ainside/licensing-api/internal/storage/postgres"
	"github.com/ainside/licensing-api/internal/storage/redis"
	"github.com/ainside/licensing-api/internal/worker"
	"github.com/ainside/licensing-api/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	signingKey, err := signing.LoadPrivateKey(cfg.License.PrivateKeyPEM, cfg.License.PrivateKeyB64, cfg.License.PrivateKeyFile)
	if err != nil {
		sugarLogger.Fatalf("Failed to load license signing key: %v", err)
	}
	signer := signing.NewSigner(signingKey)

	purchaseRepo := postgres.NewPurchaseRepository(dbPool, appLogger)
	registrationRepo := postgres.NewRegistrationRepository(dbPool, appLogger)
	lockRepo := postgres.NewDeviceLockRepository(dbPool, appLogger)
	connectionRepo := postgres.NewConnectionRepository(dbPool, appLogger)
	auditRepo := postgres.NewAuditRepository(dbPool, appLogger)
	sessionRepo := postgres.NewSessionRepository(dbPool, appLogger)

	userRepo := memstorage.NewUserRepository()
	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		if err := userRepo.SeedAdmin(username, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
			sugarLogger.Fatalf("Failed to seed admin account: %v", err)
		}
	} else {
		sugarLogger.Warn("ADMIN_USERNAME not set, no admin account seeded; admin endpoints will reject all logins")
	}

	activationService := service.NewActivationService(purchaseRepo, registrationRepo, lockRepo, appLogger)
	verificationService := service.NewVerificationService(lockRepo, registrationRepo, signer, cfg.License.AssertionTTL, appLogger)
	supportService := service.NewSupportService(registrationRepo, lockRepo, auditRepo, appLogger)
	heartbeatService := service.NewHeartbeatService(registrationRepo, connectionRepo, redisClient, appLogger)
	authService := service.NewAuthService(userRepo, &cfg.JWT, appLogger)
	twoFAService := service.NewTwoFAService(sessionRepo, auditRepo, redisClient, &cfg.Admin, appLogger)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, appLogger)
	licenseHandler := handler.NewLicenseHandler(activationService, verificationService, appLogger)
	clientHandler := handler.NewClientHandler(heartbeatService, appLogger)
	adminHandler := handler.NewAdminHandler(supportService, appLogger)
	authHandler := handler.NewAuthHandler(authService, twoFAService, appLogger)

	authMiddleware := middleware.AuthMiddleware(authService, appLogger)
	twoFAMiddleware := middleware.Require2FAMiddleware(twoFAService, appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Admin-2FA-Token",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(errorMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		licenseRoutes := apiV1.Group("/license")
		{
			licenseRoutes.POST("/activate", licenseHandler.Activate)
			licenseRoutes.POST("/check", licenseHandler.Check)
		}

		clientRoutes := apiV1.Group("/client")
		{
			clientRoutes.POST("/heartbeat", clientHandler.Heartbeat)
		}

		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/2fa/verify", authMiddleware, authHandler.Verify2FA)
		}

		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(authMiddleware, twoFAMiddleware)
		{
			adminRoutes.POST("/device-reset", adminHandler.DeviceReset)
			adminRoutes.GET("/registrations", adminHandler.ListRegistrations)
		}
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, sessionRepo, connectionRepo, appLogger); err != nil {
			sugarLogger.Error("Asynq worker failed", zap.Error(err))
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else if errors.Is(waitErr, http.ErrServerClosed) {
			sugarLogger.Info("Shutdown reason: HTTP server closed normally.")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
