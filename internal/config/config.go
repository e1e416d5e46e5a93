package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DefaultConfidenceThreshold is the score floor handed to the inference call.
	DefaultConfidenceThreshold = 0.5
	// DefaultDetectionThreshold is the score a detection needs to survive post filtering.
	DefaultDetectionThreshold = 0.6
	// DefaultMaxUploadSize is the request body ceiling in bytes (16 MiB).
	DefaultMaxUploadSize = 16 << 20
)

type Config struct {
	Port                int
	ModelPath           string
	ClassNamesPath      string
	InputSize           int     // Square network input edge in pixels
	NMSThreshold        float64 // IoU above which overlapping boxes of one class are suppressed
	InferenceWorkers    int     // Number of networks loaded for concurrent requests
	ConfidenceThreshold float64
	DetectionThreshold  float64
	UploadDirectory     string
	ResultDirectory     string
	MaxUploadSize       int64
	LogDirectory        string
	CameraDevice        int
}

// LoadEnvFile loads variables from a .env file if one exists at path.
// A missing file is not an error; values already set in the environment win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func Load() *Config {
	return &Config{
		Port:                getEnvAsInt("PORT", 5000),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "best.onnx")),
		ClassNamesPath:      getEnv("CLASS_NAMES_PATH", filepath.Join(".", "best.names")),
		InputSize:           getEnvAsInt("INPUT_SIZE", 640),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.7),
		InferenceWorkers:    getEnvAsInt("INFERENCE_WORKERS", 1),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", DefaultConfidenceThreshold),
		DetectionThreshold:  getEnvAsFloat("DETECTION_THRESHOLD", DefaultDetectionThreshold),
		UploadDirectory:     getEnv("UPLOAD_DIR", filepath.Join(".", "uploads")),
		ResultDirectory:     getEnv("RESULT_DIR", filepath.Join(".", "results")),
		MaxUploadSize:       getEnvAsInt64("MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		CameraDevice:        getEnvAsInt("CAMERA_DEVICE", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
