package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"productvision/internal/detection"
	"productvision/internal/dto"
	"productvision/internal/logger"
	"productvision/internal/service/storage"
	"productvision/internal/source"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, logger *logger.Logger) {
	writeJSON(w, status, dto.ErrorResponse{Error: message}, logger)
}

// statusFor maps a pipeline error onto the HTTP status returned to the client.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, detection.ErrModelNotLoaded):
		return http.StatusInternalServerError
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, detection.ErrInvalidImage),
		errors.Is(err, source.ErrNoFile),
		errors.Is(err, source.ErrEmptyFilename),
		errors.Is(err, source.ErrDisallowedType),
		errors.Is(err, source.ErrEmptyImageData),
		errors.Is(err, source.ErrInvalidEncoding),
		errors.Is(err, errBadParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status; server-side failures are logged.
func fail(w http.ResponseWriter, err error, logger *logger.Logger) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	writeError(w, status, err.Error(), logger)
}

var errBadParameter = errors.New("invalid parameter")

// parseThreshold reads a form value as a float, falling back when it is empty.
func parseThreshold(name, value string, fallback float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, badParameter("%s must be a number", name)
	}
	return f, nil
}

// parseBool reads a form flag such as save_result.
func parseBool(name, value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, badParameter("%s must be true or false", name)
	}
	return b, nil
}

// firstFloat returns the first non-nil value, or fallback.
func firstFloat(fallback float64, values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return fallback
}

func firstBool(fallback bool, values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return fallback
}

func badParameter(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadParameter, fmt.Sprintf(format, args...))
}
