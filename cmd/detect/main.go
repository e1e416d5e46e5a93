// Command detect runs product detection on one image file, writes the
// annotated copy and prints the product tally as JSON.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"productvision/internal/config"
	"productvision/internal/detection"
	"productvision/internal/logger"
	"productvision/internal/report"
	"productvision/internal/service/ai"
	"productvision/internal/source"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	imagePath := flag.String("image", "img2.jpg", "image to analyse")
	output := flag.String("output", "detected_result.png", "annotated output image")
	modelPath := flag.String("model", "", "ONNX weights (overrides MODEL_PATH)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}
	cfg := config.Load()
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}

	appLogger, err := logger.NewConsoleLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	if err := run(cfg, appLogger, *imagePath, *output); err != nil {
		appLogger.Error("%v", err)
		appLogger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *logger.Logger, imagePath, output string) error {
	img, err := source.FromFile(imagePath)
	if err != nil {
		return err
	}

	detector := ai.NewDetectorService(cfg, appLogger)
	defer detector.Close()

	params := detection.Params{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		DetectionThreshold:  cfg.DetectionThreshold,
	}
	ext := filepath.Ext(output)
	if ext == "" {
		ext = ".png"
	}
	analysis, err := detection.Analyze(context.Background(), detector, img, params, ext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, analysis.Annotated, 0644); err != nil {
		return err
	}

	appLogger.Detections("file", analysis.Report)
	return report.Print(os.Stdout, analysis.Report)
}
