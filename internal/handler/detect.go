package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"productvision/internal/detection"
	"productvision/internal/dto"
	"productvision/internal/logger"
	"productvision/internal/service"
	"productvision/internal/source"
)

// DetectHandler accepts a multipart upload in field "image" with optional
// confidence_threshold, detection_threshold and save_result form fields.
func DetectHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if err != nil {
			var maxBytes *http.MaxBytesError
			if !errors.As(err, &maxBytes) {
				err = fmt.Errorf("%w: %v", source.ErrNoFile, err)
			}
			fail(w, err, logger)
			return
		}
		defer file.Close()

		params, err := formParams(r, manager.Defaults())
		if err != nil {
			fail(w, err, logger)
			return
		}
		saveResult, err := parseBool("save_result", r.FormValue("save_result"))
		if err != nil {
			fail(w, err, logger)
			return
		}

		data, err := source.FromMultipart(file, header)
		if err != nil {
			fail(w, err, logger)
			return
		}

		uploads := manager.GetUploadStore()
		path, err := uploads.Save(data, header.Filename)
		if err != nil {
			fail(w, err, logger)
			return
		}
		defer uploads.Remove(path)

		// Detection runs on the stored upload.
		stored, err := source.FromFile(path)
		if err != nil {
			fail(w, err, logger)
			return
		}

		response, err := manager.Detect(r.Context(), service.Request{
			Image:      stored,
			Params:     params,
			Source:     "upload",
			SaveResult: saveResult,
		})
		if err != nil {
			fail(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, response, logger)
	}
}

func formParams(r *http.Request, defaults detection.Params) (detection.Params, error) {
	confidence, err := parseThreshold("confidence_threshold", r.FormValue("confidence_threshold"), defaults.ConfidenceThreshold)
	if err != nil {
		return detection.Params{}, err
	}
	threshold, err := parseThreshold("detection_threshold", r.FormValue("detection_threshold"), defaults.DetectionThreshold)
	if err != nil {
		return detection.Params{}, err
	}

	params := detection.Params{ConfidenceThreshold: confidence, DetectionThreshold: threshold}
	if err := params.Validate(); err != nil {
		return detection.Params{}, badParameter("%v", err)
	}
	return params, nil
}

// DetectBase64Handler accepts {"image": "<base64>", ...} JSON bodies.
func DetectBase64Handler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.Base64Request
		if err := decodeJSON(r, &req); err != nil {
			fail(w, err, logger)
			return
		}

		response, err := detectBase64(r.Context(), manager, req, dto.BatchRequest{}, "base64")
		if err != nil {
			fail(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, response, logger)
	}
}

// DetectBatchHandler runs each image of a batch independently. Item settings
// override batch settings, which override the server defaults.
func DetectBatchHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.BatchRequest
		if err := decodeJSON(r, &req); err != nil {
			fail(w, err, logger)
			return
		}
		if len(req.Images) == 0 {
			fail(w, badParameter("images must be a non-empty array"), logger)
			return
		}

		response := dto.BatchResponse{
			Results: []dto.BatchResult{},
			Errors:  []dto.BatchResult{},
		}
		for i, item := range req.Images {
			data, err := detectBase64(r.Context(), manager, item, req, "batch")
			if err != nil {
				if status := statusFor(err); status >= http.StatusInternalServerError {
					logger.Error("Batch item %d failed: %v", i, err)
				}
				response.Errors = append(response.Errors, dto.BatchResult{Index: i, Success: false, Error: err.Error()})
				continue
			}
			response.Results = append(response.Results, dto.BatchResult{Index: i, Success: true, Data: data})
		}

		response.Summary = dto.BatchSummary{
			Total:      len(req.Images),
			Successful: len(response.Results),
			Failed:     len(response.Errors),
		}
		writeJSON(w, http.StatusOK, response, logger)
	}
}

func detectBase64(ctx context.Context, manager *service.Manager, item dto.Base64Request, batch dto.BatchRequest, src string) (*dto.DetectResponse, error) {
	defaults := manager.Defaults()
	params := detection.Params{
		ConfidenceThreshold: firstFloat(defaults.ConfidenceThreshold, item.ConfidenceThreshold, batch.ConfidenceThreshold),
		DetectionThreshold:  firstFloat(defaults.DetectionThreshold, item.DetectionThreshold, batch.DetectionThreshold),
	}
	if err := params.Validate(); err != nil {
		return nil, badParameter("%v", err)
	}

	img, err := source.FromBase64(item.Image)
	if err != nil {
		return nil, err
	}

	return manager.Detect(ctx, service.Request{
		Image:       img,
		Params:      params,
		Source:      src,
		ReturnImage: firstBool(false, item.ReturnImage, batch.ReturnImage),
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badParameter("invalid JSON body: %v", err)
	}
	return nil
}
