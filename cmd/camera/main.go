// Command camera previews a webcam; 's' detects products on the current
// frame and 'q' quits.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"productvision/internal/config"
	"productvision/internal/detection"
	"productvision/internal/logger"
	"productvision/internal/service/ai"
	"productvision/internal/service/camera"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	device := flag.Int("device", -1, "capture device index (overrides CAMERA_DEVICE)")
	modelPath := flag.String("model", "", "ONNX weights (overrides MODEL_PATH)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}
	cfg := config.Load()
	if *device >= 0 {
		cfg.CameraDevice = *device
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}

	appLogger, err := logger.NewConsoleLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	detector := ai.NewDetectorService(cfg, appLogger)
	defer detector.Close()
	if !detector.Loaded() {
		appLogger.Error("Model %s could not be loaded", cfg.ModelPath)
		appLogger.Close()
		os.Exit(1)
	}

	params := detection.Params{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		DetectionThreshold:  cfg.DetectionThreshold,
	}
	service := camera.NewService(cfg.CameraDevice, detector, params, os.Stdout, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := service.Run(ctx); err != nil {
		appLogger.Error("Camera loop stopped: %v", err)
		os.Exit(1)
	}
}
