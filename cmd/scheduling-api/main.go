package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edupanel/scheduling-api/api/swagger"
	"github.com/edupanel/scheduling-api/internal/handler"
	"github.com/edupanel/scheduling-api/internal/middleware"
	"github.com/edupanel/scheduling-api/internal/models"
	"github.com/edupanel/scheduling-api/internal/repository"
	"github.com/edupanel/scheduling-api/internal/service"
	"github.com/edupanel/scheduling-api/pkg/cache"
	"github.com/edupanel/scheduling-api/pkg/config"
	"github.com/edupanel/scheduling-api/pkg/database"
	"github.com/edupanel/scheduling-api/pkg/logger"
	corsmiddleware "github.com/edupanel/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupanel/scheduling-api/pkg/middleware/requestid"
	"github.com/edupanel/scheduling-api/pkg/reasoning"
)

// @title EduPanel Scheduling API
// @version 1.0.0
// @description Schedule generation pipeline, conflict detection and calendar projection
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The engine degrades gracefully without Redis: projections and
		// catalog snapshots just skip the cache.
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	reasoner, err := reasoning.NewGemini(context.Background(), cfg.Reasoning, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init reasoning client", "error", err)
	}
	defer reasoner.Close() //nolint:errcheck

	validate := validator.New()

	scheduleRepo := repository.NewScheduleRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	catalogSvc := service.NewCatalogService(catalogRepo, cacheRepo, cfg.Catalog.CacheTTL, metricsSvc, logr)
	draftSvc := service.NewDraftService(catalogSvc, cfg.Scheduler, validate, logr)
	optimizerSvc := service.NewOptimizerService(reasoner, catalogSvc, metricsSvc, validate, logr)
	validatorSvc := service.NewValidatorService(scheduleRepo, validate, logr)
	applierSvc := service.NewApplierService(scheduleRepo, catalogSvc, cacheRepo, cfg.Scheduler, validate, logr)
	projectorSvc := service.NewProjectorService(scheduleRepo, cacheRepo, cfg.Scheduler.GridCacheTTL, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, catalogSvc, cacheRepo, validate, logr)

	pipelineHandler := handler.NewPipelineHandler(draftSvc, optimizerSvc, validatorSvc, applierSvc, metricsSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	gridHandler := handler.NewGridHandler(projectorSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT))

	viewers := api.Group("")
	viewers.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler, models.RoleViewer))
	{
		viewers.GET("/schedules", scheduleHandler.List)
		viewers.GET("/schedules/grid", gridHandler.Week)
		viewers.GET("/schedules/calendar", gridHandler.Month)
		viewers.GET("/schedules/:id", scheduleHandler.Get)
	}

	schedulers := api.Group("")
	schedulers.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler))
	{
		schedulers.POST("/schedules", scheduleHandler.Create)
		schedulers.PATCH("/schedules/:id/reschedule", scheduleHandler.Reschedule)
		schedulers.DELETE("/schedules/:id", scheduleHandler.Delete)

		schedulers.POST("/schedules/pipeline/draft", pipelineHandler.Draft)
		schedulers.POST("/schedules/pipeline/optimize", pipelineHandler.Optimize)
		schedulers.POST("/schedules/pipeline/validate", pipelineHandler.Validate)
		schedulers.POST("/schedules/pipeline/apply", pipelineHandler.Apply)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
