package route

import (
	"net/http"

	"productvision/internal/config"
	"productvision/internal/detection"
	"productvision/internal/handler"
	"productvision/internal/logger"
	"productvision/internal/middleware"
	"productvision/internal/service"
	feed "productvision/internal/service/websocket"
)

// SetupRoutes registers the complete detection API and wraps it with
// recovery, request logging and the upload size limit.
func SetupRoutes(manager *service.Manager, hub *feed.HubService, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthHandler(manager, logger))
	mux.HandleFunc("GET /model/info", handler.ModelInfoHandler(manager, logger))

	// Detection endpoints
	mux.HandleFunc("POST /detect", handler.DetectHandler(manager, logger))
	mux.HandleFunc("POST /detect_base64", handler.DetectBase64Handler(manager, logger))
	mux.HandleFunc("POST /detect_batch", handler.DetectBatchHandler(manager, logger))
	mux.HandleFunc("GET /result/{id}", handler.ResultHandler(manager, logger))

	// Live feed
	mux.HandleFunc("GET /ws/detections", handler.DetectionFeedHandler(hub, logger))

	mux.HandleFunc("/", handler.NotFoundHandler(logger))

	return middleware.Chain(mux,
		middleware.Recover(logger),
		middleware.Logging(logger),
		middleware.LimitBody(cfg.MaxUploadSize),
	)
}

// SetupMinimalRoutes registers the single unfiltered detection endpoint.
func SetupMinimalRoutes(det detection.Detector, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /detect", handler.RawDetectHandler(det, cfg.ConfidenceThreshold, logger))
	mux.HandleFunc("/", handler.NotFoundHandler(logger))

	return middleware.Chain(mux,
		middleware.Recover(logger),
		middleware.Logging(logger),
		middleware.LimitBody(cfg.MaxUploadSize),
	)
}
