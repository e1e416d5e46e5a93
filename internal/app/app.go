package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"productvision/internal/config"
	"productvision/internal/detection"
	"productvision/internal/logger"
	"productvision/internal/route"
	"productvision/internal/service"
	"productvision/internal/service/ai"
	"productvision/internal/service/storage"
	"productvision/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config          *config.Config
	logger          *logger.Logger
	detectorService *ai.DetectorService
	hubService      *websocket.HubService
	manager         *service.Manager
}

// NewApp loads the model and wires the services behind the complete API.
// A model that fails to load leaves the server running in unhealthy mode.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	results, err := storage.NewResultStore(cfg.ResultDirectory, logger)
	if err != nil {
		return nil, err
	}
	uploads, err := storage.NewUploadStore(cfg.UploadDirectory, logger)
	if err != nil {
		return nil, err
	}

	detector := ai.NewDetectorService(cfg, logger)
	hub := websocket.NewHubService(logger)

	defaults := detection.Params{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		DetectionThreshold:  cfg.DetectionThreshold,
	}
	mng := service.NewManager(detector, results, uploads, hub, defaults, logger)

	return &App{
		config:          cfg,
		logger:          logger,
		detectorService: detector,
		hubService:      hub,
		manager:         mng,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.detectorService.Close()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hubService.Run(hubCtx)

	router := route.SetupRoutes(a.manager, a.hubService, a.config, a.logger)

	a.logger.Info("Product detection server")
	a.logger.Info("URL: http://localhost:%d", a.config.Port)
	a.logger.Info("Model: %s (loaded: %t)", a.config.ModelPath, a.manager.ModelLoaded())
	a.logger.Info("Results: %s", a.config.ResultDirectory)

	return Serve(ctx, fmt.Sprintf(":%d", a.config.Port), router, a.logger)
}

// Serve runs handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *logger.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
