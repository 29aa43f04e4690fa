package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/javedansari81/sunrise-school-management-sub000/api/swagger"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/handler"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/middleware"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/repository"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/service"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/cache"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/config"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/database"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/export"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/logger"
	corsmiddleware "github.com/javedansari81/sunrise-school-management-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/javedansari81/sunrise-school-management-sub000/pkg/middleware/requestid"
)

// @title Sunrise School Fee API
// @version 1.0.0
// @description Monthly fee obligation and payment allocation engine
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	structureRepo := repository.NewFeeStructureRepository(db)
	recordRepo := repository.NewFeeRecordRepository(db)
	monthlyRepo := repository.NewMonthlyFeeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sunrise-school",
	})
	structureSvc := service.NewFeeStructureService(structureRepo, cacheRepo, 10*time.Minute, logr)
	trackingSvc := service.NewFeeTrackingService(studentRepo, structureSvc, recordRepo, cacheRepo, metricsSvc, validate, logr, cfg.Fees)
	paymentSvc := service.NewPaymentService(recordRepo, monthlyRepo, paymentRepo, studentRepo, cacheRepo, metricsSvc, validate, logr)
	summarySvc := service.NewFeeSummaryService(studentRepo, recordRepo, monthlyRepo, cacheRepo, cfg.Fees.SummaryCacheTTL, logr)
	exportSvc := service.NewExportService(paymentRepo, paymentSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	trackingHandler := handler.NewFeeTrackingHandler(trackingSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	summaryHandler := handler.NewFeeSummaryHandler(summarySvc)
	structureHandler := handler.NewFeeStructureHandler(structureSvc)
	reportHandler := handler.NewReportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	fees := api.Group("/fees", middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleAccountant)
	fees.POST("/tracking/enable", staff, trackingHandler.EnableTracking)
	fees.POST("/payments", staff, paymentHandler.RecordPayment)
	fees.GET("/payments/:id/receipt", staff, reportHandler.Receipt)
	fees.GET("/students/:studentId/summary", staff, summaryHandler.StudentSummary)
	fees.GET("/summaries", staff, summaryHandler.ListSummaries)
	fees.GET("/structures", staff, structureHandler.List)
	fees.GET("/reports/collection", staff, reportHandler.CollectionReport)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
