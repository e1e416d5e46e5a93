package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"productvision/internal/detection"
	"productvision/internal/dto"
	"productvision/internal/logger"
	"productvision/internal/source"
)

// RawDetectHandler returns every candidate above the confidence floor for the
// multipart field "file", with class indices instead of names.
func RawDetectHandler(det detection.Detector, confidence float64, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if det == nil || !det.Loaded() {
			fail(w, detection.ErrModelNotLoaded, logger)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			var maxBytes *http.MaxBytesError
			if !errors.As(err, &maxBytes) {
				err = fmt.Errorf("%w: %v", source.ErrNoFile, err)
			}
			fail(w, err, logger)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			fail(w, err, logger)
			return
		}
		if len(data) == 0 {
			fail(w, source.ErrNoFile, logger)
			return
		}

		raw, err := det.Predict(r.Context(), data, confidence)
		if err != nil {
			fail(w, err, logger)
			return
		}

		response := dto.RawResponse{Detections: make([]dto.RawDetection, 0, len(raw))}
		for _, c := range raw {
			response.Detections = append(response.Detections, dto.RawDetection{
				Box:        c.Box,
				Label:      c.ClassID,
				Confidence: c.Score,
			})
		}

		logger.Info("Minimal detect: %d candidate(s)", len(raw))
		writeJSON(w, http.StatusOK, response, logger)
	}
}
