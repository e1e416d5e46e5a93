package detection

import (
	"context"
	"fmt"
)

// Params carries the two independent score knobs. ConfidenceThreshold is
// handed to the inference call; DetectionThreshold filters its output.
type Params struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	DetectionThreshold  float64 `json:"detection_threshold"`
}

// Validate checks that both thresholds are finite and lie in [0, 1].
func (p Params) Validate() error {
	if !inUnitRange(p.ConfidenceThreshold) {
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %v", p.ConfidenceThreshold)
	}
	if !inUnitRange(p.DetectionThreshold) {
		return fmt.Errorf("detection_threshold must be between 0 and 1, got %v", p.DetectionThreshold)
	}
	return nil
}

// inUnitRange is false for NaN, which fails every comparison.
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Analysis is a Report plus the optional annotated image.
type Analysis struct {
	Report
	Annotated []byte
}

// Analyze runs inference, the post filter and the tally for one image. When
// annotateExt is non-empty the surviving detections are drawn onto a copy of
// img encoded with that extension.
func Analyze(ctx context.Context, det Detector, img []byte, params Params, annotateExt string) (*Analysis, error) {
	if det == nil || !det.Loaded() {
		return nil, ErrModelNotLoaded
	}

	raw, err := det.Predict(ctx, img, params.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	detections := Filter(raw, det.ClassNames(), params.DetectionThreshold)
	analysis := &Analysis{Report: Summarize(detections)}

	if annotateExt != "" {
		analysis.Annotated, err = det.Annotate(img, detections, annotateExt)
		if err != nil {
			return nil, fmt.Errorf("failed to annotate image: %w", err)
		}
	}

	return analysis, nil
}
