package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uniroom-api/api/swagger"
	"github.com/noah-isme/uniroom-api/internal/cron"
	"github.com/noah-isme/uniroom-api/internal/handler"
	"github.com/noah-isme/uniroom-api/internal/middleware"
	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/internal/repository"
	"github.com/noah-isme/uniroom-api/internal/service"
	"github.com/noah-isme/uniroom-api/pkg/cache"
	"github.com/noah-isme/uniroom-api/pkg/config"
	"github.com/noah-isme/uniroom-api/pkg/database"
	"github.com/noah-isme/uniroom-api/pkg/export"
	"github.com/noah-isme/uniroom-api/pkg/jobs"
	"github.com/noah-isme/uniroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uniroom-api/pkg/middleware/cors"
	"github.com/noah-isme/uniroom-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/uniroom-api/pkg/middleware/requestid"
)

// @title UniRoom API
// @version 1.0.0
// @description University room scheduling: recurring timetable, per-date exceptions, conflict checks and room requests.
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	scheduleRepo := repository.NewRecurringScheduleRepository(db)
	exceptionRepo := repository.NewScheduleExceptionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	requestRepo := repository.NewRoomRequestRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	uow := database.NewUnitOfWork(db)

	var (
		cacheSvc  *service.CacheService
		cacheRepo *repository.CacheRepository
	)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled)
	}

	auditDispatcher := service.NewAuditDispatcher(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	auditDispatcher.Start(context.Background())
	defer auditDispatcher.Stop()
	metricsSvc.TrackQueue("audit", auditDispatcher.Stats)

	refs := service.NewReferenceService(classRepo, teacherRepo, roomRepo, slotRepo)
	conflictSvc := service.NewConflictService(scheduleRepo, exceptionRepo, metricsSvc, cfg.Scheduling.MaxRangeDays, logr)
	slotSvc := service.NewTimeSlotService(slotRepo, cacheSvc, logr)
	roomSvc := service.NewRoomService(roomRepo, slotSvc, refs, conflictSvc, cacheSvc, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, refs, conflictSvc, uow, auditDispatcher, validate, logr)
	exceptionSvc := service.NewExceptionService(exceptionRepo, scheduleRepo, refs, conflictSvc, uow, auditDispatcher, validate, logr)
	occurrenceSvc := service.NewOccurrenceService(scheduleRepo, exceptionRepo, slotSvc, logr)
	exportSvc := service.NewExportService(occurrenceSvc, slotSvc, export.NewRegistry(), logr)
	requestSvc := service.NewRoomRequestService(requestRepo, scheduleRepo, exceptionSvc, refs, conflictSvc, uow, auditDispatcher, validate, logr,
		service.WithRoomRequestMetrics(metricsSvc))
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.Scheduling.SweeperEnabled {
		scheduler := cron.NewScheduler(requestSvc, logr)
		if err := scheduler.RegisterSweeper(cfg.Scheduling.SweeperSpec); err != nil {
			logr.Fatal("invalid sweeper schedule", zap.String("spec", cfg.Scheduling.SweeperSpec), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	readiness := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if cacheRepo != nil {
		readiness["redis"] = cacheRepo.Ping
	}

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	exceptionHandler := handler.NewExceptionHandler(exceptionSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc)
	occurrenceHandler := handler.NewOccurrenceHandler(occurrenceSvc, exportSvc)
	catalogHandler := handler.NewCatalogHandler(roomSvc, slotSvc)
	requestHandler := handler.NewRoomRequestHandler(requestSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	view := middleware.RequireCapability(models.CapabilityViewSchedule)
	manage := middleware.RequireCapability(models.CapabilityManageSchedule)
	review := middleware.RequireCapability(models.CapabilityReviewRequest)
	submit := middleware.RequireCapability(models.CapabilitySubmitRequest)
	throttle := limiter.Middleware(func(c *gin.Context) string {
		if actor, ok := middleware.ActorFromContext(c); ok {
			return "user:" + actor.UserID()
		}
		return ""
	})

	api.GET("/time-slots", view, catalogHandler.ListTimeSlots)
	api.GET("/time-slots/:id", view, catalogHandler.GetTimeSlot)
	api.GET("/rooms", view, catalogHandler.ListRooms)
	api.GET("/rooms/available", view, catalogHandler.AvailableRooms)
	api.GET("/rooms/:id", view, catalogHandler.GetRoom)

	api.GET("/schedules", view, scheduleHandler.List)
	api.POST("/schedules", manage, throttle, scheduleHandler.Create)
	api.GET("/schedules/:id", view, scheduleHandler.Get)
	api.POST("/schedules/:id/cancel", manage, throttle, scheduleHandler.Cancel)
	api.GET("/schedules/:id/exceptions", view, exceptionHandler.List)
	api.POST("/schedules/:id/exceptions", manage, throttle, exceptionHandler.Create)
	api.DELETE("/exceptions/:id", manage, throttle, exceptionHandler.Delete)
	api.GET("/schedules/:id/occurrences/:date", view, occurrenceHandler.Resolve)

	api.POST("/conflicts/room", view, conflictHandler.CheckRoom)
	api.POST("/conflicts/teacher", view, conflictHandler.CheckTeacher)

	api.GET("/occurrences/weekly", view, occurrenceHandler.Weekly)
	api.GET("/occurrences/weekly/export", view, throttle,
		middleware.Audit(auditDispatcher, models.AuditActionTimetableExport, "occurrences"), occurrenceHandler.Export)

	api.POST("/room-requests", submit, throttle, requestHandler.Submit)
	api.GET("/room-requests", view, requestHandler.List)
	api.GET("/room-requests/:id", view, requestHandler.Get)
	api.POST("/room-requests/:id/approve", review, throttle, requestHandler.Approve)
	api.POST("/room-requests/:id/reject", review, throttle, requestHandler.Reject)

	api.GET("/metrics/snapshot", review, metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
