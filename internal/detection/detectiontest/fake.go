// Package detectiontest provides an in-memory detection.Detector for tests.
package detectiontest

import (
	"bytes"
	"context"
	"sync"

	"productvision/internal/detection"
)

// Fake returns a fixed candidate list for every image except those equal to
// InvalidImage, which fail with detection.ErrInvalidImage.
type Fake struct {
	Names        []string
	Raw          []detection.Raw
	Unloaded     bool
	InvalidImage []byte
	AnnotateErr  error
	// OnPredict, when set, is called with each image before predicting.
	OnPredict func(img []byte)

	mu             sync.Mutex
	predictCalls   int
	lastConfidence float64
	annotated      [][]detection.Detection
}

func (f *Fake) Loaded() bool { return !f.Unloaded }

func (f *Fake) ClassNames() []string { return f.Names }

// Predict mimics the inference floor: only candidates above confidence are returned.
func (f *Fake) Predict(_ context.Context, img []byte, confidence float64) ([]detection.Raw, error) {
	f.mu.Lock()
	f.predictCalls++
	f.lastConfidence = confidence
	f.mu.Unlock()

	if f.OnPredict != nil {
		f.OnPredict(img)
	}
	if f.Unloaded {
		return nil, detection.ErrModelNotLoaded
	}
	if f.InvalidImage != nil && bytes.Equal(img, f.InvalidImage) {
		return nil, detection.ErrInvalidImage
	}

	var out []detection.Raw
	for _, r := range f.Raw {
		if r.Score > confidence {
			out = append(out, r)
		}
	}
	return out, nil
}

// Annotate returns "annotated<ext>:" followed by img.
func (f *Fake) Annotate(img []byte, detections []detection.Detection, ext string) ([]byte, error) {
	if f.AnnotateErr != nil {
		return nil, f.AnnotateErr
	}
	f.mu.Lock()
	f.annotated = append(f.annotated, detections)
	f.mu.Unlock()
	return append([]byte("annotated"+ext+":"), img...), nil
}

// PredictCalls reports how many times Predict ran.
func (f *Fake) PredictCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.predictCalls
}

// LastConfidence is the floor passed to the most recent Predict call.
func (f *Fake) LastConfidence() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastConfidence
}

// AnnotateCalls reports how many times Annotate ran.
func (f *Fake) AnnotateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.annotated)
}

// Products is a ready-made fake with three products around typical scores.
func Products() *Fake {
	return &Fake{
		Names: []string{"aqua", "chitato", "indomie"},
		Raw: []detection.Raw{
			{ClassID: 0, Score: 0.91, Box: detection.Box{10, 10, 50, 80}},
			{ClassID: 2, Score: 0.84, Box: detection.Box{60, 12, 110, 70}},
			{ClassID: 0, Score: 0.73, Box: detection.Box{120, 15, 160, 85}},
			{ClassID: 1, Score: 0.55, Box: detection.Box{5, 90, 40, 130}},
		},
	}
}
