package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/unidept/presentation-scheduler/api/swagger"
	"github.com/unidept/presentation-scheduler/internal/handler"
	"github.com/unidept/presentation-scheduler/internal/notify"
	"github.com/unidept/presentation-scheduler/internal/repository"
	"github.com/unidept/presentation-scheduler/internal/router"
	"github.com/unidept/presentation-scheduler/internal/service"
	"github.com/unidept/presentation-scheduler/pkg/cache"
	"github.com/unidept/presentation-scheduler/pkg/config"
	"github.com/unidept/presentation-scheduler/pkg/database"
	"github.com/unidept/presentation-scheduler/pkg/logger"
	corsmiddleware "github.com/unidept/presentation-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/unidept/presentation-scheduler/pkg/middleware/requestid"
)

// @title Presentation Scheduler API
// @version 1.0.0
// @description Slot allocation and conflict resolution for academic presentation sessions
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	grid, err := service.NewScheduleGrid(cfg.Scheduling)
	if err != nil {
		logr.Sugar().Fatalw("invalid scheduling config", "error", err)
	}

	bookingRepo := repository.NewBookingRepository(db)
	rescheduleRepo := repository.NewRescheduleRepository(db)
	examinerRepo := repository.NewExaminerRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	userRepo := repository.NewUserRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Availability.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notifier *notify.Dispatcher
	if cfg.Notifications.LectureRescheduleURL != "" {
		rescheduler := notify.NewWebhookRescheduler(cfg.Notifications.LectureRescheduleURL, 0)
		notifier = notify.NewDispatcher(rescheduler, cfg.Notifications, logr)
		notifier.Start(ctx)
		defer notifier.Stop()
	}

	locks := service.NewDateLocker()
	metricsSvc := service.NewMetricsService()

	var availabilitySvc *service.AvailabilityService
	if cacheRepo != nil {
		availabilitySvc = service.NewAvailabilityService(bookingRepo, cacheRepo, grid, cfg.Availability.CacheTTL, logr)
	} else {
		availabilitySvc = service.NewAvailabilityService(bookingRepo, nil, grid, cfg.Availability.CacheTTL, logr)
	}
	suggestionSvc := service.NewSuggestionService(bookingRepo, studentRepo, examinerRepo, venueRepo, timetableRepo, grid, metricsSvc, logr)

	var bookingSvc *service.BookingService
	if notifier != nil {
		bookingSvc = service.NewBookingService(bookingRepo, studentRepo, examinerRepo, venueRepo, availabilitySvc, notifier, locks, metricsSvc, nil, logr)
	} else {
		bookingSvc = service.NewBookingService(bookingRepo, studentRepo, examinerRepo, venueRepo, availabilitySvc, nil, locks, metricsSvc, nil, logr)
	}
	rescheduleSvc := service.NewRescheduleService(rescheduleRepo, bookingRepo, availabilitySvc, locks, metricsSvc, nil, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "presentation-scheduler",
	})
	examinerSvc := service.NewExaminerService(examinerRepo, userRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	venueSvc := service.NewVenueService(venueRepo, nil, logr)
	moduleSvc := service.NewModuleService(moduleRepo, examinerRepo, nil, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, nil, logr)
	exportSvc := service.NewExportService(bookingRepo, studentRepo, examinerRepo, venueRepo, nil, nil, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Bookings:   handler.NewBookingHandler(bookingSvc),
		Scheduler:  handler.NewSchedulerHandler(availabilitySvc, suggestionSvc, studentRepo, examinerRepo, venueRepo),
		Reschedule: handler.NewRescheduleHandler(rescheduleSvc),
		Examiners:  handler.NewExaminerHandler(examinerSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Venues:     handler.NewVenueHandler(venueSvc),
		Modules:    handler.NewModuleHandler(moduleSvc),
		Timetable:  handler.NewTimetableHandler(timetableSvc),
		Exports:    handler.NewExportHandler(exportSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc),
	}, authSvc, metricsSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "presentation-scheduler"})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
