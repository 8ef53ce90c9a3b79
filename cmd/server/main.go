// Package main runs the RealInvest HTTP server with the campaign scheduler,
// notification worker and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ufukcicekdev/RealInvest/config"
	"github.com/ufukcicekdev/RealInvest/internal/auth"
	"github.com/ufukcicekdev/RealInvest/internal/constructions"
	"github.com/ufukcicekdev/RealInvest/internal/contact"
	"github.com/ufukcicekdev/RealInvest/internal/listings"
	"github.com/ufukcicekdev/RealInvest/internal/middleware"
	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/internal/newsletter"
	"github.com/ufukcicekdev/RealInvest/internal/realtime"
	"github.com/ufukcicekdev/RealInvest/internal/settings"
	"github.com/ufukcicekdev/RealInvest/internal/worker"
	"github.com/ufukcicekdev/RealInvest/pkg/database"
	"github.com/ufukcicekdev/RealInvest/pkg/queue"
	"github.com/ufukcicekdev/RealInvest/pkg/redis"
	"github.com/ufukcicekdev/RealInvest/pkg/response"
	"github.com/ufukcicekdev/RealInvest/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		MediaBucket:          cfg.AWS.MediaBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	hub := realtime.NewHub(logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Site settings
	settingsRepo := settings.NewRepository(pool)
	settingsHandler := settings.NewHandler(settingsRepo, s3Client, logger)

	// Listings
	listingRepo := listings.NewRepository(pool)
	listingHandler := listings.NewHandler(listingRepo, s3Client, logger)

	// Constructions
	constructionRepo := constructions.NewRepository(pool)
	constructionHandler := constructions.NewHandler(constructionRepo, s3Client, logger)

	// Contact
	contactRepo := contact.NewRepository(pool)
	contactHandler := contact.NewHandler(contactRepo, jobQueue, logger)

	// Newsletter
	subscriberRepo := newsletter.NewSubscriberRepository(pool)
	campaignRepo := newsletter.NewCampaignRepository(pool)
	logRepo := newsletter.NewLogRepository(pool)
	auditLog := realtime.NewLogBroadcaster(logRepo, hub)
	renderer := newsletter.NewRenderer(cfg.Site.BaseURL, s3Client.PublicURL)
	dialer := newsletter.NewSMTPDialer()
	orchestrator := newsletter.NewOrchestrator(subscriberRepo, campaignRepo, auditLog, settingsRepo, dialer, renderer, logger)
	runner := newsletter.NewRunner(campaignRepo, orchestrator, logger)
	subscriberService := newsletter.NewService(subscriberRepo)
	newsletterHandler := newsletter.NewHandler(subscriberService, subscriberRepo, campaignRepo, logRepo, orchestrator, runner, logger)

	scheduler := newsletter.NewScheduler(runner, logger)
	if cfg.Site.SchedulerEnabled {
		if err := scheduler.Start(); err != nil {
			logger.Fatal("scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	// Contact notification worker
	emailProcessor := worker.NewEmailProcessor(settingsRepo, dialer, jobQueue, logger)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go emailProcessor.Run(workerCtx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health: a load balancer should stop routing here when a dependency is down.
	router.GET("/health", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(checkCtx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Ping(checkCtx).Err(); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Public site
	router.GET("/settings", settingsHandler.GetPublic)
	router.GET("/home", listingHandler.Home(settingsHandler))
	router.GET("/listings", listingHandler.List)
	router.GET("/listings/:slug", listingHandler.GetBySlug)
	router.GET("/constructions", constructionHandler.List)
	router.GET("/constructions/:slug", constructionHandler.GetBySlug)
	router.POST("/contact", contactHandler.Submit)
	router.POST("/newsletter/subscribe", newsletterHandler.Subscribe)
	router.GET("/newsletter/unsubscribe/:token", newsletterHandler.UnsubscribeConfirm)
	router.POST("/newsletter/unsubscribe/:token", newsletterHandler.Unsubscribe)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Admin API (JWT required)
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService), middleware.RequireRole(models.RoleAdmin, models.RoleEditor))
	{
		admin.GET("/me", authHandler.Me)
		admin.GET("/users", middleware.RequireRole(models.RoleAdmin), authHandler.List)
		admin.POST("/users", middleware.RequireRole(models.RoleAdmin), authHandler.Create)

		admin.GET("/settings", settingsHandler.Get)
		admin.PUT("/settings", settingsHandler.Update)
		admin.POST("/settings/logo", settingsHandler.UploadLogo)

		admin.GET("/listings", listingHandler.AdminList)
		admin.POST("/listings", listingHandler.Create)
		admin.PUT("/listings/:id", listingHandler.Update)
		admin.DELETE("/listings/:id", listingHandler.Delete)
		admin.POST("/listings/:id/images", listingHandler.UploadImage)
		admin.POST("/listings/:id/images/presign", listingHandler.PresignImageUpload)
		admin.DELETE("/listings/:id/images/:image_id", listingHandler.DeleteImage)
		admin.PUT("/listings/:id/images/:image_id/cover", listingHandler.SetCover)

		admin.GET("/constructions", constructionHandler.AdminList)
		admin.POST("/constructions", constructionHandler.Create)
		admin.PUT("/constructions/:id", constructionHandler.Update)
		admin.POST("/constructions/:id/complete", constructionHandler.Complete)
		admin.DELETE("/constructions/:id", constructionHandler.Delete)
		admin.POST("/constructions/:id/images", constructionHandler.UploadImage)
		admin.DELETE("/constructions/:id/images/:image_id", constructionHandler.DeleteImage)

		admin.GET("/contact-messages", contactHandler.List)
		admin.PUT("/contact-messages/:id/read", contactHandler.MarkRead)
		admin.DELETE("/contact-messages/:id", contactHandler.Delete)

		admin.GET("/subscribers", newsletterHandler.ListSubscribers)
		admin.POST("/campaigns", newsletterHandler.CreateCampaign)
		admin.GET("/campaigns", newsletterHandler.ListCampaigns)
		admin.GET("/campaigns/:id", newsletterHandler.GetCampaign)
		admin.PATCH("/campaigns/:id", newsletterHandler.UpdateCampaign)
		admin.DELETE("/campaigns/:id", newsletterHandler.DeleteCampaign)
		admin.POST("/campaigns/:id/send", newsletterHandler.SendCampaign)
		admin.POST("/campaigns/send", newsletterHandler.SendCampaigns)
		admin.POST("/campaigns/send-due", newsletterHandler.SendDue)
		admin.GET("/campaigns/:id/logs", newsletterHandler.ListLogs)
		admin.DELETE("/campaigns/:id/logs", newsletterHandler.ClearLogs)
	}

	// WebSocket log feed (token in query; no Authorization header on upgrade)
	router.GET("/ws/campaigns/:id/logs", realtime.ServeWs(hub, jwtService, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
