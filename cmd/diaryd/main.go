package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/diarydesk/diarydesk/internal/app"
	"github.com/diarydesk/diarydesk/internal/diary"
	diaryhttp "github.com/diarydesk/diarydesk/internal/diary/http"
	"github.com/diarydesk/diarydesk/internal/observability"
	"github.com/diarydesk/diarydesk/internal/offices"
	"github.com/diarydesk/diarydesk/internal/platform/cache"
	"github.com/diarydesk/diarydesk/internal/platform/db"
	"github.com/diarydesk/diarydesk/internal/rbac"
	"github.com/diarydesk/diarydesk/internal/reports"
	"github.com/diarydesk/diarydesk/internal/reports/export"
	reportshttp "github.com/diarydesk/diarydesk/internal/reports/http"
	"github.com/diarydesk/diarydesk/jobs"
	"github.com/diarydesk/diarydesk/report"
)

// changeFanout forwards diary write notifications to every listener.
type changeFanout []diary.ChangeNotifier

func (f changeFanout) DiaryChanged(ctx context.Context, year int) {
	for _, n := range f {
		n.DiaryChanged(ctx, year)
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DiaryAutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Warn("redis unavailable, dashboard cache and jobs disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	policy, err := rbac.LoadPolicyFile(cfg.RBACPolicyFile)
	if err != nil {
		logger.Error("load rbac policy", slog.Any("error", err))
		os.Exit(1)
	}
	rbacService := rbac.NewService(policy)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	metrics := observability.NewMetrics()

	officeService := offices.NewService(offices.NewRepository(pool), cfg.OfficeCacheTTL, cfg.CollationLang)
	reportCache := reports.NewCache(redisClient, cfg.DashboardCacheTTL, logger)

	notifier := changeFanout{reportCache}
	var jobHandler *jobs.Handler
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		jobClient := jobs.NewClient(redisOpts, logger)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		notifier = append(notifier, jobClient)

		inspector := asynq.NewInspector(redisOpts)
		defer inspector.Close()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	diaryRepo := diary.NewRepository(pool)
	diaryService := diary.NewService(diaryRepo, diary.Options{
		Location:      cfg.Location(),
		DefaultOffice: cfg.DiaryDefaultOffice,
		PageSize:      cfg.DiaryPageSize,
		Offices:       officeService,
		Notifier:      notifier,
		Recorder:      metrics,
		Logger:        logger,
	})

	reportService := reports.NewService(diaryRepo, reports.NewRepository(pool), reportCache, diaryService.Projector(), logger)
	pdfClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	var pdfRenderer reportshttp.PDFRenderer
	if exporter, err := export.NewPDFExporter(pdfClient); err != nil {
		logger.Warn("pdf export disabled", slog.Any("error", err))
	} else {
		pdfRenderer = exporter
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbacMiddleware,
		DiaryHandler:       diaryhttp.NewHandler(logger, diaryService, cfg.Location()),
		OfficesHandler:     offices.NewHandler(logger, officeService),
		ReportsHandler:     reportshttp.NewHandler(logger, reportService, pdfRenderer),
		PDFEngineHandler:   report.NewHandler(pdfClient, logger),
		JobHandler:         jobHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
