package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/gallery/internal/config"
	"github.com/straye-as/gallery/internal/database"
	"github.com/straye-as/gallery/internal/domain"
	"github.com/straye-as/gallery/internal/http/handler"
	"github.com/straye-as/gallery/internal/http/middleware"
	"github.com/straye-as/gallery/internal/http/router"
	"github.com/straye-as/gallery/internal/jobs"
	"github.com/straye-as/gallery/internal/logger"
	"github.com/straye-as/gallery/internal/repository"
	"github.com/straye-as/gallery/internal/search"
	"github.com/straye-as/gallery/internal/service"
	"github.com/straye-as/gallery/internal/storage"
	"github.com/straye-as/gallery/internal/view"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			log.Error("Refusing to start with incomplete configuration",
				zap.Strings("missing", cfgErr.Missing),
				zap.Strings("invalid", cfgErr.Invalid),
			)
		}
		return err
	}

	sasInfo, err := storage.InspectSASToken(cfg.Storage.SASToken)
	if err != nil {
		log.Warn("Could not inspect SAS token, expiry is unknown", zap.Error(err))
	} else {
		log.Info("SAS token loaded",
			zap.Time("expires_at", sasInfo.Expiry),
			zap.String("permissions", sasInfo.Permissions),
			zap.Bool("signed", sasInfo.Signed),
		)
		if !sasInfo.Signed {
			log.Warn("SAS token has no signature, blob requests will be rejected")
		}
		if sasInfo.Status(time.Now(), 0) == storage.SASStatusExpired {
			log.Warn("SAS token has already expired", zap.Time("expired_at", sasInfo.Expiry))
		}
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	imageRepo, err := repository.NewImageRepository(db, &cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize image repository: %w", err)
	}

	searchClient := search.NewClient(&cfg.Search, log)

	catalogService := service.NewCatalogService(imageRepo, &cfg.Storage, log)
	searchService := service.NewSearchService(searchClient, &cfg.Storage, log)

	views, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	// The container probe needs list permission on the token, so it is opt-in
	var probe handler.ContainerChecker
	if cfg.Storage.ProbeEnabled {
		containerProbe, err := storage.NewContainerProbe(cfg.Storage.ServiceURL(), cfg.Storage.ContainerName, cfg.Storage.SASToken, log)
		if err != nil {
			log.Warn("Container probe disabled", zap.Error(err))
		} else {
			probe = containerProbe
		}
	}

	galleryHandler := handler.NewGalleryHandler(catalogService, searchService, views, &cfg.Server, log)
	healthHandler := handler.NewHealthHandler(db, sasInfo, cfg.Jobs.SASExpiryWarningDuration(), probe, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, rateLimiter, galleryHandler, healthHandler)

	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterSASExpiryJob(scheduler, &cfg.Jobs, sasInfo, log); err != nil {
		log.Error("Failed to register SAS expiry job", zap.Error(err))
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		<-scheduler.Stop().Done()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		<-scheduler.Stop().Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
