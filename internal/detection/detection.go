// Package detection holds the model-independent half of product detection:
// the detection types, the post filter, the per-class tally and the pipeline
// that ties an inference backend to them.
package detection

import (
	"context"
	"errors"
)

var (
	// ErrModelNotLoaded is returned when inference is requested but no network is available.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrInvalidImage is returned when the payload cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
)

// Box is a bounding box in pixel coordinates: x1, y1, x2, y2.
type Box [4]float64

func (b Box) X1() float64 { return b[0] }
func (b Box) Y1() float64 { return b[1] }
func (b Box) X2() float64 { return b[2] }
func (b Box) Y2() float64 { return b[3] }

// Raw is one candidate as returned by the inference call.
type Raw struct {
	ClassID int
	Score   float64
	Box     Box
}

// Detection is a candidate that survived the detection threshold, with its class name resolved.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       Box     `json:"bbox"`
}

// Detector is the inference-capable model handle. Implementations must be safe
// for concurrent use once constructed.
type Detector interface {
	// Loaded reports whether the weights were loaded successfully.
	Loaded() bool
	// ClassNames maps class index to name.
	ClassNames() []string
	// Predict decodes img and returns candidates scoring above confidence.
	Predict(ctx context.Context, img []byte, confidence float64) ([]Raw, error)
	// Annotate draws detections onto a copy of img and encodes it with ext (".png", ".jpg").
	Annotate(img []byte, detections []Detection, ext string) ([]byte, error)
}
