// Package router assembles the HTTP surface: route groups, auth
// guards and observability endpoints.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/unidept/presentation-scheduler/internal/handler"
	"github.com/unidept/presentation-scheduler/internal/middleware"
	"github.com/unidept/presentation-scheduler/internal/models"
	"github.com/unidept/presentation-scheduler/internal/service"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Bookings   *handler.BookingHandler
	Scheduler  *handler.SchedulerHandler
	Reschedule *handler.RescheduleHandler
	Examiners  *handler.ExaminerHandler
	Students   *handler.StudentHandler
	Modules    *handler.ModuleHandler
	Venues     *handler.VenueHandler
	Timetable  *handler.TimetableHandler
	Exports    *handler.ExportHandler
	Metrics    *handler.MetricsHandler
}

// Register mounts all API routes under /api/v1.
func Register(r *gin.Engine, h Handlers, auth *service.AuthService, metrics *service.MetricsService) {
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.Refresh)

	protected := v1.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/me", h.Auth.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleExaminer)

	bookings := protected.Group("/presentations")
	{
		bookings.GET("", h.Bookings.List)
		bookings.GET("/:id", h.Bookings.Get)
		bookings.GET("/examiner/:id", h.Bookings.ListByExaminer)
		bookings.GET("/student/:id", h.Bookings.ListByStudent)
		bookings.POST("", adminOnly, h.Bookings.Create)
		bookings.PUT("/:id", adminOnly, h.Bookings.Update)
		bookings.DELETE("/:id", adminOnly, h.Bookings.Delete)
	}

	scheduler := protected.Group("/scheduler")
	{
		scheduler.POST("/availability", h.Scheduler.CheckAvailability)
		scheduler.POST("/suggest", staff, h.Scheduler.SuggestSlot)
		scheduler.GET("/suggest/reschedule/:id", staff, h.Scheduler.SuggestForReschedule)
	}

	reschedules := protected.Group("/reschedules")
	{
		reschedules.GET("", h.Reschedule.List)
		reschedules.GET("/:id", h.Reschedule.Get)
		reschedules.POST("", h.Reschedule.Create)
		reschedules.POST("/:id/decision", adminOnly, h.Reschedule.Decide)
		reschedules.DELETE("/:id", adminOnly, h.Reschedule.Delete)
	}

	examiners := protected.Group("/examiners")
	{
		examiners.GET("", h.Examiners.List)
		examiners.GET("/:id", h.Examiners.Get)
		examiners.POST("", adminOnly, h.Examiners.Create)
		examiners.PUT("/:id", adminOnly, h.Examiners.Update)
		examiners.DELETE("/:id", adminOnly, h.Examiners.Delete)
	}

	students := protected.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/:id", h.Students.Get)
		students.POST("", adminOnly, h.Students.Create)
		students.PUT("/:id", adminOnly, h.Students.Update)
		students.DELETE("/:id", adminOnly, h.Students.Delete)
	}

	venues := protected.Group("/venues")
	{
		venues.GET("", h.Venues.List)
		venues.GET("/:id", h.Venues.Get)
		venues.POST("", adminOnly, h.Venues.Create)
		venues.PUT("/:id", adminOnly, h.Venues.Update)
		venues.DELETE("/:id", adminOnly, h.Venues.Delete)
	}

	modules := protected.Group("/modules")
	{
		modules.GET("", h.Modules.List)
		modules.GET("/:id", h.Modules.Get)
		modules.POST("", adminOnly, h.Modules.Create)
		modules.PUT("/:id", adminOnly, h.Modules.Update)
		modules.DELETE("/:id", adminOnly, h.Modules.Delete)
	}

	timetable := protected.Group("/timetable")
	{
		timetable.GET("", h.Timetable.List)
		timetable.GET("/:id", h.Timetable.Get)
		timetable.GET("/examiner/:id", h.Timetable.ListByExaminer)
		timetable.GET("/venue/:id", h.Timetable.ListByVenue)
		timetable.POST("", adminOnly, h.Timetable.Create)
		timetable.PUT("/:id", adminOnly, h.Timetable.Update)
		timetable.DELETE("/:id", adminOnly, h.Timetable.Delete)
	}

	exports := protected.Group("/exports")
	{
		exports.GET("/schedule/:date", staff, h.Exports.DaySchedule)
	}
}
