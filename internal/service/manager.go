package service

import (
	"context"
	"time"

	"productvision/internal/detection"
	"productvision/internal/dto"
	"productvision/internal/logger"
	"productvision/internal/service/storage"
	"productvision/internal/source"
)

// EventPublisher receives one event per successful detection.
type EventPublisher interface {
	Publish(v interface{})
}

// Request describes one image to analyse and what to do with the result.
type Request struct {
	Image       []byte
	Params      detection.Params
	Source      string
	SaveResult  bool
	ReturnImage bool
}

// Manager runs detections and fans the outcome out to the result store,
// the detection log and the live feed.
type Manager struct {
	detector detection.Detector
	results  *storage.ResultStore
	uploads  *storage.UploadStore
	events   EventPublisher
	defaults detection.Params
	logger   *logger.Logger
}

func NewManager(detector detection.Detector, results *storage.ResultStore, uploads *storage.UploadStore, events EventPublisher, defaults detection.Params, logger *logger.Logger) *Manager {
	return &Manager{
		detector: detector,
		results:  results,
		uploads:  uploads,
		events:   events,
		defaults: defaults,
		logger:   logger,
	}
}

func (m *Manager) GetDetector() detection.Detector {
	return m.detector
}

func (m *Manager) GetResultStore() *storage.ResultStore {
	return m.results
}

func (m *Manager) GetUploadStore() *storage.UploadStore {
	return m.uploads
}

// Defaults are the thresholds used when a request does not set its own.
func (m *Manager) Defaults() detection.Params {
	return m.defaults
}

// ModelLoaded reports whether detections can be served.
func (m *Manager) ModelLoaded() bool {
	return m.detector != nil && m.detector.Loaded()
}

// Detect analyses one image. The annotated PNG is only produced when the
// request asks for it to be saved or returned.
func (m *Manager) Detect(ctx context.Context, req Request) (*dto.DetectResponse, error) {
	annotateExt := ""
	if req.SaveResult || req.ReturnImage {
		annotateExt = ".png"
	}

	analysis, err := detection.Analyze(ctx, m.detector, req.Image, req.Params, annotateExt)
	if err != nil {
		return nil, err
	}

	response := dto.NewDetectResponse(analysis.Report, req.Params)

	if req.SaveResult {
		id, err := m.results.Save(analysis.Annotated)
		if err != nil {
			return nil, err
		}
		response.ResultImageID = id
	}
	if req.ReturnImage {
		response.ResultImage = source.ToBase64(analysis.Annotated)
	}

	m.logger.Info("Detected %d product(s) from %s", analysis.Amount, req.Source)
	m.logger.Detections(req.Source, analysis.Report)

	if m.events != nil {
		m.events.Publish(dto.DetectionEvent{
			Source:        req.Source,
			Amount:        analysis.Amount,
			Products:      analysis.Products,
			ResultImageID: response.ResultImageID,
			Timestamp:     time.Now().UTC(),
		})
	}

	return &response, nil
}
