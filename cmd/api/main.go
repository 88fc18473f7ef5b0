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

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	_ "github.com/univalle-lab/labstock-api/api/swagger"
	"github.com/univalle-lab/labstock-api/internal/handler"
	"github.com/univalle-lab/labstock-api/internal/repository"
	"github.com/univalle-lab/labstock-api/internal/service"
	"github.com/univalle-lab/labstock-api/pkg/cache"
	"github.com/univalle-lab/labstock-api/pkg/config"
	"github.com/univalle-lab/labstock-api/pkg/database"
	"github.com/univalle-lab/labstock-api/pkg/logger"
)

// @title LabStock API
// @version 1.0.0
// @description Laboratory supply inventory: stock lifecycle, usage requests, alerts and reports
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

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
	}

	validate := validator.New()
	validate.SetTagName("binding")

	// Repositories.
	supplyRepo := repository.NewSupplyRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	usageRequestRepo := repository.NewUsageRequestRepository(db)
	studentRequestRepo := repository.NewStudentRequestRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	damagedRepo := repository.NewDamagedRepository(db)
	acquisitionRepo := repository.NewAcquisitionRepository(db)
	practiceRepo := repository.NewPracticeRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	labRepo := repository.NewLabRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	ledger := service.NewStockLedger(supplyRepo, alertRepo, logr)
	supplySvc := service.NewSupplyService(supplyRepo, ledger, cacheRepo, db, validate, logr, cfg.Cache.TTL)
	usageRequestSvc := service.NewUsageRequestService(usageRequestRepo, supplyRepo, practiceRepo, labRepo, ledger, movementRepo, db, validate, logr, service.UsageRequestConfig{
		MaxGroups:        cfg.Requests.MaxGroups,
		DefaultGroupSize: cfg.Requests.DefaultGroupSize,
	})
	studentRequestSvc := service.NewStudentRequestService(studentRequestRepo, studentRepo, supplyRepo, ledger, movementRepo, db, validate, logr)
	maintenanceSvc := service.NewMaintenanceService(maintenanceRepo, ledger, db, validate, logr)
	damagedSvc := service.NewDamagedService(damagedRepo, ledger, movementRepo, db, validate, logr)
	alertSvc := service.NewAlertService(alertRepo, db, logr)
	movementSvc := service.NewMovementService(movementRepo, logr)
	acquisitionSvc := service.NewAcquisitionService(acquisitionRepo, labRepo, validate, logr)
	practiceSvc := service.NewPracticeService(practiceRepo, supplyRepo, validate, logr)
	referenceSvc := service.NewReferenceService(referenceRepo, logr)
	labSvc := service.NewLabService(labRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
	})
	metricsSvc := service.NewMetricsService()
	reportSvc := service.NewReportService(supplyRepo, movementRepo, usageRequestRepo, studentRequestRepo, acquisitionRepo, logr, service.ReportConfig{
		StorageDir:        cfg.Reports.StorageDir,
		WorkerConcurrency: cfg.Reports.WorkerConcurrency,
		WorkerRetries:     cfg.Reports.WorkerRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportSvc.Start(ctx)
	defer reportSvc.Stop()

	r := handler.NewRouter(cfg, logr, authSvc, metricsSvc, handler.Handlers{
		Auth:            handler.NewAuthHandler(authSvc),
		Supplies:        handler.NewSupplyHandler(supplySvc),
		Requests:        handler.NewUsageRequestHandler(usageRequestSvc),
		StudentRequests: handler.NewStudentRequestHandler(studentRequestSvc),
		Maintenance:     handler.NewMaintenanceHandler(maintenanceSvc),
		Damaged:         handler.NewDamagedHandler(damagedSvc),
		Alerts:          handler.NewAlertHandler(alertSvc),
		Movements:       handler.NewMovementHandler(movementSvc),
		Acquisitions:    handler.NewAcquisitionHandler(acquisitionSvc),
		Practices:       handler.NewPracticeHandler(practiceSvc),
		Reference:       handler.NewReferenceHandler(referenceSvc),
		Labs:            handler.NewLabHandler(labSvc),
		Students:        handler.NewStudentHandler(studentSvc),
		Reports:         handler.NewReportHandler(reportSvc),
		Metrics:         handler.NewMetricsHandler(metricsSvc),
	})

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
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
