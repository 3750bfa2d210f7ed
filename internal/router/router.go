package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/vidyalay/school-saas-api/internal/handler"
	"github.com/vidyalay/school-saas-api/internal/middleware"
	"github.com/vidyalay/school-saas-api/internal/models"
	"github.com/vidyalay/school-saas-api/internal/service"
	"github.com/vidyalay/school-saas-api/pkg/config"
	"github.com/vidyalay/school-saas-api/pkg/logger"
	corsmiddleware "github.com/vidyalay/school-saas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vidyalay/school-saas-api/pkg/middleware/requestid"

	"go.uber.org/zap"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	School     *handler.SchoolHandler
	Teacher    *handler.TeacherHandler
	Student    *handler.StudentHandler
	Class      *handler.ClassHandler
	Grade      *handler.GradeHandler
	Attendance *handler.AttendanceHandler
	Picker     *handler.PickerHandler
	Export     *handler.ExportHandler
	Metrics    *handler.MetricsHandler
}

// Setup configures the Gin engine with all route groups and middleware.
func Setup(cfg *config.Config, logr *zap.Logger, authService *service.AuthService, metricsService *service.MetricsService, handlers *Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handlers.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)
		auth.GET("/me", middleware.JWT(authService), handlers.Auth.Me)
	}

	// Admin surface. Role and tenant checks beyond the role gate live in
	// the service layer.
	admin := r.Group("/secure/admin")
	admin.Use(middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/school", handlers.School.Get)
		admin.POST("/school", handlers.School.Create)
		admin.PUT("/school", handlers.School.Update)

		admin.GET("/teachers", handlers.Teacher.List)
		admin.POST("/teachers", handlers.Teacher.Create)
		admin.PUT("/teachers/:id", handlers.Teacher.Update)
		admin.DELETE("/teachers/:id", handlers.Teacher.Delete)
		admin.GET("/teachers-list", handlers.Picker.Teachers)

		admin.GET("/students", handlers.Student.List)
		admin.POST("/students", handlers.Student.Create)
		admin.PUT("/students/:id", handlers.Student.Update)
		admin.DELETE("/students/:id", handlers.Student.Delete)

		admin.GET("/classes", handlers.Class.List)
		admin.POST("/classes", handlers.Class.Create)
		admin.PUT("/classes/:id", handlers.Class.Update)
		admin.DELETE("/classes/:id", handlers.Class.Delete)
		admin.GET("/classes-list", handlers.Picker.Classes)

		if cfg.Exports.Enabled {
			admin.GET("/classes/:id/roster.csv", handlers.Export.ClassRoster)
			admin.GET("/students/:id/report.pdf", handlers.Export.StudentReport)
		}
	}

	// Record surface. Students can read their own records so the role gate
	// admits everyone; write entitlement is enforced per operation.
	records := r.Group("/secure/records")
	records.Use(middleware.JWT(authService))
	{
		records.GET("/grades", handlers.Grade.List)
		records.POST("/grades", handlers.Grade.Record)
		records.GET("/attendance", handlers.Attendance.List)
		records.POST("/attendance", handlers.Attendance.Record)
	}

	return r
}
