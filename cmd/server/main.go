package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scouthq/paperscout/internal/api"
	"github.com/scouthq/paperscout/internal/config"
	"github.com/scouthq/paperscout/internal/logger"
	"github.com/scouthq/paperscout/internal/provider"
	"github.com/scouthq/paperscout/internal/repository"
	"github.com/scouthq/paperscout/internal/scheduler"
	"github.com/scouthq/paperscout/internal/service"
	"github.com/scouthq/paperscout/internal/source"
	"github.com/scouthq/paperscout/internal/source/arxiv"
	"github.com/scouthq/paperscout/internal/source/static"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
		ServiceName: "paperscout",
	})
	logger.SetDefaultLogger(appLogger)

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	articleRepo := repository.NewArticleRepository(db)
	batchRepo := repository.NewBatchJobRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	gateway := provider.NewClient(&provider.ClientConfig{
		BaseURL:           cfg.Provider.BaseURL,
		APIKey:            cfg.Provider.APIKey,
		Version:           cfg.Provider.Version,
		Model:             cfg.Provider.Model,
		MaxTokens:         cfg.Provider.MaxTokens,
		MaxTopics:         cfg.Provider.MaxTopics,
		Timeout:           cfg.Provider.Timeout,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
	})

	notifier := service.NewInterestNotifier(profileRepo, notificationRepo, appLogger)
	applier := service.NewResultApplier(articleRepo, notifier, gateway, appLogger)
	batcher := service.NewBatcher(articleRepo, batchRepo, gateway, appLogger)
	lifecycle := service.NewLifecycleManager(
		batchRepo, articleRepo, applier, gateway, cfg.Scheduler.MaxJobAge, appLogger)

	var producers []source.Producer
	for _, category := range cfg.Sources.ArxivCategories {
		producers = append(producers, arxiv.NewAdapter(category, cfg.Sources.ArxivTimeout))
	}
	if cfg.Sources.StaticFeed != "" {
		producers = append(producers, static.NewAdapter("", cfg.Sources.StaticFeed))
	}

	jobs := scheduler.NewJobs(
		producers, articleRepo, notificationRepo, batcher, lifecycle,
		cfg.Scheduler.BatchLimit, appLogger)

	sched := scheduler.New(appLogger)
	sched.Register(scheduler.TriggerIngest, jobs.IngestAndBatch)
	sched.Register(scheduler.TriggerPoll, jobs.PollBatches)
	if cfg.Scheduler.Enabled {
		sched.StartDaily(scheduler.TriggerIngest, cfg.Scheduler.IngestHour, cfg.Scheduler.IngestMinute)
		sched.StartInterval(scheduler.TriggerPoll, cfg.Scheduler.PollInterval)
	}

	router := api.SetupRouter(
		sched, articleRepo, batchRepo, notificationRepo,
		cfg.Scheduler.ManualRunTimeout, cfg.Server.Mode, appLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
