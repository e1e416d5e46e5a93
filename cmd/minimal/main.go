// Command minimal serves a single POST /detect endpoint that returns every
// candidate above the confidence floor with its class index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"productvision/internal/app"
	"productvision/internal/config"
	"productvision/internal/logger"
	"productvision/internal/route"
	"productvision/internal/service/ai"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	port := flag.Int("port", 8000, "listen port")
	modelPath := flag.String("model", "", "ONNX weights (overrides MODEL_PATH)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}
	cfg := config.Load()
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}

	appLogger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	detector := ai.NewDetectorService(cfg, appLogger)
	defer detector.Close()
	if !detector.Loaded() {
		appLogger.Error("Model %s could not be loaded", cfg.ModelPath)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Minimal detection server on :%d", *port)
	if err := app.Serve(ctx, fmt.Sprintf(":%d", *port), route.SetupMinimalRoutes(detector, cfg, appLogger), appLogger); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
