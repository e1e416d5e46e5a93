package handler

import (
	"fmt"
	"net/http"

	"productvision/internal/dto"
	"productvision/internal/logger"
	"productvision/internal/service"
	"productvision/internal/service/storage"
)

// HealthHandler answers 200 when the model is loaded and 503 otherwise.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager.ModelLoaded() {
			writeJSON(w, http.StatusOK, dto.HealthResponse{Status: "healthy", ModelLoaded: true}, logger)
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "unhealthy", ModelLoaded: false}, logger)
	}
}

func ModelInfoHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := dto.ModelInfoResponse{
			ModelLoaded: manager.ModelLoaded(),
			ClassNames:  map[int]string{},
		}
		if info.ModelLoaded {
			for i, name := range manager.GetDetector().ClassNames() {
				info.ClassNames[i] = name
			}
			info.NumClasses = len(info.ClassNames)
		}
		writeJSON(w, http.StatusOK, info, logger)
	}
}

// ResultHandler serves a stored annotated image as a PNG attachment.
func ResultHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		f, err := manager.GetResultStore().Open(id)
		if err != nil {
			fail(w, err, logger)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			fail(w, err, logger)
			return
		}

		name := storage.ResultFilename(id)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}

// NotFoundHandler answers unknown paths with a JSON 404.
func NotFoundHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found", logger)
	}
}
