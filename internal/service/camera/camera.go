package camera

import (
	"context"
	"fmt"
	"io"

	"productvision/internal/detection"
	"productvision/internal/logger"
	"productvision/internal/report"
	"productvision/internal/service/ai"

	"gocv.io/x/gocv"
)

const (
	// WindowTitle is the preview window name.
	WindowTitle = "Camera Preview"
	// OutputPath is where the annotated capture is written.
	OutputPath = "photo_detected.jpg"
)

// FramePredictor runs inference on decoded frames.
type FramePredictor interface {
	Loaded() bool
	ClassNames() []string
	PredictMat(ctx context.Context, mat *gocv.Mat, confidence float64) ([]detection.Raw, error)
}

// Service previews a capture device and runs detection on demand.
type Service struct {
	device   int
	detector FramePredictor
	params   detection.Params
	output   string
	stdout   io.Writer
	logger   *logger.Logger
}

func NewService(device int, detector FramePredictor, params detection.Params, stdout io.Writer, logger *logger.Logger) *Service {
	return &Service{
		device:   device,
		detector: detector,
		params:   params,
		output:   OutputPath,
		stdout:   stdout,
		logger:   logger,
	}
}

// Run shows frames until 'q' is pressed or a frame cannot be read. Pressing
// 's' detects products on the current frame. It fails before touching the
// device when no model is loaded.
func (s *Service) Run(ctx context.Context) error {
	if !s.detector.Loaded() {
		return detection.ErrModelNotLoaded
	}

	capture, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return fmt.Errorf("cannot open camera %d: %w", s.device, err)
	}
	defer capture.Close()

	window := gocv.NewWindow(WindowTitle)
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	fmt.Fprintln(s.stdout, "Press 's' to take a photo, 'q' to quit.")

	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			s.logger.Warning("Failed to read frame from camera %d", s.device)
			return nil
		}

		if err := window.IMShow(frame); err != nil {
			return fmt.Errorf("failed to show frame: %w", err)
		}

		switch key := window.WaitKey(1) & 0xFF; key {
		case 's':
			if err := s.Capture(ctx, &frame); err != nil {
				return err
			}
		case 'q':
			return nil
		}
	}
}

// Capture detects products on frame, writes the annotated copy and prints the summary.
func (s *Service) Capture(ctx context.Context, frame *gocv.Mat) error {
	if !s.detector.Loaded() {
		return detection.ErrModelNotLoaded
	}

	raw, err := s.detector.PredictMat(ctx, frame, s.params.ConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	detections := detection.Filter(raw, s.detector.ClassNames(), s.params.DetectionThreshold)
	summary := detection.Summarize(detections)

	annotated := frame.Clone()
	defer annotated.Close()

	if err := ai.AnnotateMat(&annotated, detections); err != nil {
		return err
	}
	if ok := gocv.IMWrite(s.output, annotated); !ok {
		return fmt.Errorf("failed to write %s", s.output)
	}

	fmt.Fprintf(s.stdout, "Image saved as %s\n", s.output)
	s.logger.Detections("camera", summary)
	return report.Print(s.stdout, summary)
}
