package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-admin-api/api/swagger"
	"github.com/noah-isme/school-admin-api/internal/enrollment"
	"github.com/noah-isme/school-admin-api/internal/handler"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/migrations"
	"github.com/noah-isme/school-admin-api/pkg/cache"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
	"github.com/noah-isme/school-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-admin-api/pkg/storage"
)

// @title School Admin API
// @version 1.0.0
// @description Teachers, subjects, students and the enrollment ledger.
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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db.DB, migrations.FS, logr); err != nil {
			return err
		}
	}

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.EnableCache {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	store, err := storage.NewLocalStorage(cfg.Media.StorageDir)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)
	mediaSvc := service.NewMediaService(store, signer, studentRepo, teacherRepo, service.MediaConfig{
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		ThumbnailMax:   cfg.Media.ThumbnailMax,
		AllowedExts:    cfg.Media.AllowedExts,
		URLPrefix:      cfg.APIPrefix + "/media",
	}, logr)

	queue := jobs.NewQueue("avatars", jobs.QueueConfig{
		Workers:    cfg.Import.Workers,
		MaxRetries: cfg.Import.Retries,
		Logger:     logr,
	})
	queue.Register(service.AvatarJobType, service.AvatarJobHandler(mediaSvc))
	queue.Start(context.Background())
	defer queue.Stop()

	ledger := enrollment.NewLedger(enrollment.LedgerConfig{
		MaxCredits:    cfg.Ledger.MaxCredits,
		CommitTimeout: cfg.Ledger.CommitTimeout,
		MaxRetries:    uint64(cfg.Ledger.MaxRetries),
		RetryBase:     cfg.Ledger.RetryBase,
	}, logr, metrics)

	validate := validator.New()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "school-admin-api",
	})
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	teacherSvc := service.NewTeacherService(teacherRepo, subjectRepo, mediaSvc, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, enrollmentRepo, subjectRepo, mediaSvc, cacheSvc, ledger.MaxCredits(), validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, ledger, cacheSvc, logr)
	importSvc := service.NewImportService(teacherRepo, subjectRepo, studentRepo, queue, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(repository.NewDashboardRepository(db), cacheSvc, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL}, logr)
	reportSvc := service.NewReportService(repository.NewReportRepository(db), cacheSvc, cfg.Reports.CacheTTL, logr)
	systemSvc := service.NewSystemService(repository.NewSystemRepository(db), logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics.Handler())
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc, mediaSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Students:    handler.NewStudentHandler(studentSvc, mediaSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Media:       handler.NewMediaHandler(mediaSvc),
		Imports:     handler.NewImportHandler(importSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Reports:     handler.NewReportHandler(reportSvc),
		System:      handler.NewSystemHandler(systemSvc),
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := queue.Drain(shutdownCtx); err != nil {
		logr.Warn("avatar jobs still pending at shutdown", zap.Error(err))
	}
	return nil
}
