package detection_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"productvision/internal/detection"
	"productvision/internal/detection/detectiontest"
)

var defaults = detection.Params{ConfidenceThreshold: 0.5, DetectionThreshold: 0.6}

func TestAnalyze_DefaultThresholds(t *testing.T) {
	fake := detectiontest.Products()

	analysis, err := detection.Analyze(context.Background(), fake, []byte("img"), defaults, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Amount != 3 {
		t.Errorf("Expected amount 3, got %d", analysis.Amount)
	}
	if analysis.Products["aqua"] != 2 || analysis.Products["indomie"] != 1 {
		t.Errorf("Unexpected products: %v", analysis.Products)
	}
	if _, ok := analysis.Products["chitato"]; ok {
		t.Error("chitato scored 0.55 and must be filtered by the detection threshold")
	}
	if fake.LastConfidence() != 0.5 {
		t.Errorf("Expected confidence floor 0.5 passed to inference, got %v", fake.LastConfidence())
	}
	if analysis.Annotated != nil || fake.AnnotateCalls() != 0 {
		t.Error("Annotate should not run when no extension is requested")
	}
}

func TestAnalyze_DetectionThresholdIsIndependent(t *testing.T) {
	fake := detectiontest.Products()

	// Inference floor lets everything through; the post filter still applies.
	params := detection.Params{ConfidenceThreshold: 0.1, DetectionThreshold: 0.8}
	analysis, err := detection.Analyze(context.Background(), fake, []byte("img"), params, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Amount != 2 {
		t.Errorf("Expected amount 2, got %d", analysis.Amount)
	}
	for _, d := range analysis.Detections {
		if d.Confidence < 0.8 {
			t.Errorf("Detection %+v below detection threshold leaked into output", d)
		}
	}
}

func TestAnalyze_NoDetections(t *testing.T) {
	fake := detectiontest.Products()

	params := detection.Params{ConfidenceThreshold: 0.5, DetectionThreshold: 0.99}
	analysis, err := detection.Analyze(context.Background(), fake, []byte("img"), params, ".png")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Amount != 0 || len(analysis.Products) != 0 {
		t.Errorf("Expected empty report, got %+v", analysis.Report)
	}
	if !bytes.HasPrefix(analysis.Annotated, []byte("annotated.png:")) {
		t.Errorf("Expected annotated copy even without detections, got %q", analysis.Annotated)
	}
}

func TestAnalyze_Annotates(t *testing.T) {
	fake := detectiontest.Products()

	analysis, err := detection.Analyze(context.Background(), fake, []byte("img"), defaults, ".jpg")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if string(analysis.Annotated) != "annotated.jpg:img" {
		t.Errorf("Unexpected annotated output %q", analysis.Annotated)
	}
	if fake.AnnotateCalls() != 1 {
		t.Errorf("Expected 1 annotate call, got %d", fake.AnnotateCalls())
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		det      detection.Detector
		img      []byte
		expected error
	}{
		{"nil detector", nil, []byte("img"), detection.ErrModelNotLoaded},
		{"unloaded", &detectiontest.Fake{Unloaded: true}, []byte("img"), detection.ErrModelNotLoaded},
		{"invalid image", &detectiontest.Fake{InvalidImage: []byte("bad")}, []byte("bad"), detection.ErrInvalidImage},
	}

	for _, tt := range tests {
		_, err := detection.Analyze(context.Background(), tt.det, tt.img, defaults, "")
		if !errors.Is(err, tt.expected) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, err)
		}
	}
}

func TestAnalyze_AnnotateError(t *testing.T) {
	fake := detectiontest.Products()
	fake.AnnotateErr = errors.New("encode failed")

	if _, err := detection.Analyze(context.Background(), fake, []byte("img"), defaults, ".png"); err == nil {
		t.Error("Expected annotate error to propagate")
	}
}
