package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/vidyalay/school-saas-api/api/swagger"
	"github.com/vidyalay/school-saas-api/internal/handler"
	"github.com/vidyalay/school-saas-api/internal/repository"
	"github.com/vidyalay/school-saas-api/internal/router"
	"github.com/vidyalay/school-saas-api/internal/service"
	"github.com/vidyalay/school-saas-api/pkg/cache"
	"github.com/vidyalay/school-saas-api/pkg/config"
	"github.com/vidyalay/school-saas-api/pkg/database"
	"github.com/vidyalay/school-saas-api/pkg/logger"
)

// @title School SaaS API
// @version 1.0.0
// @description Multi-tenant school administration API
// @BasePath /
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

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, picker cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	if cacheRepo == nil {
		cacheRepo = repository.NewCacheRepository(nil, logr)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	classRepo := repository.NewClassRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, schoolRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	pickerService := service.NewPickerService(userRepo, classRepo, cacheRepo, cfg.Cache.PickerTTL, logr)
	schoolService := service.NewSchoolService(schoolRepo, userRepo, validate, logr)
	teacherService := service.NewTeacherService(userRepo, pickerService, validate, logr)
	studentService := service.NewStudentService(userRepo, classRepo, validate, logr)
	classService := service.NewClassService(classRepo, userRepo, pickerService, validate, logr)
	gradeService := service.NewGradeService(gradeRepo, userRepo, classRepo, validate, logr, metricsService)
	attendanceService := service.NewAttendanceService(attendanceRepo, userRepo, classRepo, validate, logr, metricsService)
	exportService := service.NewRosterExportService(userRepo, classRepo, gradeRepo, attendanceRepo, logr)

	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		School:     handler.NewSchoolHandler(schoolService),
		Teacher:    handler.NewTeacherHandler(teacherService),
		Student:    handler.NewStudentHandler(studentService),
		Class:      handler.NewClassHandler(classService),
		Grade:      handler.NewGradeHandler(gradeService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		Picker:     handler.NewPickerHandler(pickerService, metricsService),
		Export:     handler.NewExportHandler(exportService),
		Metrics:    handler.NewMetricsHandler(metricsService),
	}

	r := router.Setup(cfg, logr, authService, metricsService, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
