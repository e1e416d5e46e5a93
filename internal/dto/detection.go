package dto

import (
	"time"

	"productvision/internal/detection"
)

// DetectResponse is the body of a successful detection request.
type DetectResponse struct {
	Amount        int                   `json:"amount"`
	Products      map[string]int        `json:"products"`
	Detections    []detection.Detection `json:"detections"`
	Parameters    detection.Params      `json:"parameters"`
	ResultImageID string                `json:"result_image_id,omitempty"`
	ResultImage   string                `json:"result_image,omitempty"`
}

// NewDetectResponse copies a report and the parameters that produced it.
func NewDetectResponse(r detection.Report, params detection.Params) DetectResponse {
	return DetectResponse{
		Amount:     r.Amount,
		Products:   r.Products,
		Detections: r.Detections,
		Parameters: params,
	}
}

// Base64Request is the body of /detect_base64 and one item of a batch.
// Nil fields fall back to the enclosing defaults.
type Base64Request struct {
	Image               string   `json:"image"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	DetectionThreshold  *float64 `json:"detection_threshold,omitempty"`
	ReturnImage         *bool    `json:"return_image,omitempty"`
}

// BatchRequest carries several base64 images with shared defaults.
type BatchRequest struct {
	Images              []Base64Request `json:"images"`
	ConfidenceThreshold *float64        `json:"confidence_threshold,omitempty"`
	DetectionThreshold  *float64        `json:"detection_threshold,omitempty"`
	ReturnImage         *bool           `json:"return_image,omitempty"`
}

type BatchResult struct {
	Index   int             `json:"index"`
	Success bool            `json:"success"`
	Data    *DetectResponse `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type BatchResponse struct {
	Results []BatchResult `json:"results"`
	Errors  []BatchResult `json:"errors"`
	Summary BatchSummary  `json:"summary"`
}

// RawDetection is one unfiltered candidate in the minimal server response.
type RawDetection struct {
	Box        detection.Box `json:"box"`
	Label      int           `json:"label"`
	Confidence float64       `json:"confidence"`
}

type RawResponse struct {
	Detections []RawDetection `json:"detections"`
}

// DetectionEvent is pushed to live feed viewers after each successful detection.
type DetectionEvent struct {
	Source        string         `json:"source"`
	Amount        int            `json:"amount"`
	Products      map[string]int `json:"products"`
	ResultImageID string         `json:"result_image_id,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}
