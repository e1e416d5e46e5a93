package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"productvision/internal/config"
	"productvision/internal/detection"
	"productvision/internal/logger"

	"gocv.io/x/gocv"
)

const (
	// scaleFactor maps 8-bit pixels onto [0, 1].
	scaleFactor = 1.0 / 255.0
	// padValue is the grey used to fill letterbox borders.
	padValue = 114.0
)

var errNoOutput = errors.New("network returned no output")

// DetectorService runs a YOLOv8 ONNX model through the OpenCV DNN module.
// A gocv.Net cannot run two forward passes at once, so the service keeps a
// pool of identical networks and lends one to each prediction.
type DetectorService struct {
	nets         chan *gocv.Net
	all          []*gocv.Net
	outputNames  []string
	classNames   []string
	inputSize    int
	nmsThreshold float64
	loaded       bool
	closeOnce    sync.Once
	logger       *logger.Logger
}

// NewDetectorService loads cfg.InferenceWorkers copies of the model. When
// loading fails the service is still returned, reporting Loaded() == false.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) *DetectorService {
	service := &DetectorService{
		inputSize:    cfg.InputSize,
		nmsThreshold: cfg.NMSThreshold,
		logger:       logger,
	}
	if service.inputSize <= 0 {
		service.inputSize = 640
	}

	if err := service.initializeNets(cfg); err != nil {
		service.logger.Warning("Could not initialize detection network: %v", err)
		service.closeNets()
		return service
	}

	service.loaded = true
	service.logger.Info("Detection network initialized: %d classes, %d worker(s)", len(service.classNames), len(service.all))
	return service
}

func (s *DetectorService) initializeNets(cfg *config.Config) error {
	info, err := os.Stat(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model file is empty: %s", cfg.ModelPath)
	}

	workers := cfg.InferenceWorkers
	if workers < 1 {
		workers = 1
	}

	s.nets = make(chan *gocv.Net, workers)
	for i := 0; i < workers; i++ {
		net := gocv.ReadNetFromONNX(cfg.ModelPath)
		if net.Empty() {
			net.Close()
			return fmt.Errorf("failed to load network from %s", cfg.ModelPath)
		}
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			net.Close()
			return fmt.Errorf("failed to set preferable backend: %w", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			net.Close()
			return fmt.Errorf("failed to set preferable target: %w", err)
		}
		s.all = append(s.all, &net)
		s.nets <- &net
	}

	s.outputNames = getOutputNames(s.all[0])
	if len(s.outputNames) == 0 {
		return errors.New("network has no output layers")
	}

	numClasses, err := s.warmUp()
	if err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}

	names, err := detection.LoadClassNames(cfg.ClassNamesPath)
	switch {
	case err != nil:
		s.logger.Warning("Class names unavailable (%v), using numbered names", err)
		names = detection.NumberedClassNames(numClasses)
	case len(names) != numClasses:
		return fmt.Errorf("class names file lists %d classes, model outputs %d", len(names), numClasses)
	}
	s.classNames = names
	return nil
}

// warmUp runs one forward pass on a blank frame and returns the class count
// read from the output shape.
func (s *DetectorService) warmUp() (int, error) {
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), s.inputSize, s.inputSize, gocv.MatTypeCV8UC3)
	defer blank.Close()

	net := <-s.nets
	defer func() { s.nets <- net }()

	out, err := s.forward(net, &blank)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	attrs, _, err := outputShape(out)
	if err != nil {
		return 0, err
	}
	return attrs - 4, nil
}

func (s *DetectorService) Loaded() bool { return s.loaded }

func (s *DetectorService) ClassNames() []string { return s.classNames }

// Predict decodes img and returns candidates above confidence, after NMS, in image coordinates.
func (s *DetectorService) Predict(ctx context.Context, img []byte, confidence float64) ([]detection.Raw, error) {
	if !s.loaded {
		return nil, detection.ErrModelNotLoaded
	}

	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrInvalidImage, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", detection.ErrInvalidImage)
	}

	return s.PredictMat(ctx, &mat, confidence)
}

// PredictMat runs inference on an already decoded BGR frame.
func (s *DetectorService) PredictMat(ctx context.Context, mat *gocv.Mat, confidence float64) ([]detection.Raw, error) {
	if !s.loaded {
		return nil, detection.ErrModelNotLoaded
	}

	var net *gocv.Net
	select {
	case net = <-s.nets:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	out, err := s.forward(net, mat)
	s.nets <- net
	if err != nil {
		return nil, err
	}
	defer out.Close()

	attrs, anchors, err := outputShape(out)
	if err != nil {
		return nil, err
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	candidates, err := detection.DecodeYOLOv8(data, attrs, anchors, confidence)
	if err != nil {
		return nil, err
	}

	lb := detection.NewLetterbox(mat.Cols(), mat.Rows(), s.inputSize)
	kept := s.suppress(candidates, confidence)
	for i := range kept {
		kept[i].Box = lb.ToImage(kept[i].Box)
	}

	detection.SortByScore(kept)
	if len(kept) > detection.MaxDetections {
		kept = kept[:detection.MaxDetections]
	}
	return kept, nil
}

func (s *DetectorService) forward(net *gocv.Net, mat *gocv.Mat) (gocv.Mat, error) {
	params := gocv.NewImageToBlobParams(
		scaleFactor,
		image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(0, 0, 0, 0),
		true,
		gocv.MatTypeCV32F,
		gocv.DataLayoutNCHW,
		gocv.PaddingModeLetterbox,
		gocv.NewScalar(padValue, padValue, padValue, 0),
	)

	blob := gocv.BlobFromImageWithParams(*mat, params)
	defer blob.Close()

	net.SetInput(blob, "")
	return firstOutput(net.ForwardLayers(s.outputNames))
}

// firstOutput keeps the detection head and closes every other Mat, including
// the head itself when it is empty.
func firstOutput(outs []gocv.Mat) (gocv.Mat, error) {
	if len(outs) == 0 {
		return gocv.NewMat(), errNoOutput
	}
	for i := 1; i < len(outs); i++ {
		outs[i].Close()
	}
	if outs[0].Empty() {
		outs[0].Close()
		return gocv.NewMat(), errNoOutput
	}
	return outs[0], nil
}

// suppress runs NMS separately for each class.
func (s *DetectorService) suppress(candidates []detection.Raw, confidence float64) []detection.Raw {
	var kept []detection.Raw
	for _, group := range detection.GroupByClass(candidates) {
		rects := make([]image.Rectangle, len(group))
		scores := make([]float32, len(group))
		for i, c := range group {
			rects[i] = image.Rect(int(c.Box.X1()), int(c.Box.Y1()), int(c.Box.X2()), int(c.Box.Y2()))
			scores[i] = float32(c.Score)
		}

		for _, idx := range gocv.NMSBoxes(rects, scores, float32(confidence), float32(s.nmsThreshold)) {
			kept = append(kept, group[idx])
		}
	}
	return kept
}

// Annotate draws detections on a copy of img and encodes it with ext.
func (s *DetectorService) Annotate(img []byte, detections []detection.Detection, ext string) ([]byte, error) {
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", detection.ErrInvalidImage, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", detection.ErrInvalidImage)
	}

	if err := AnnotateMat(&mat, detections); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.FileExt(ext), mat)
	if err != nil {
		s.logger.Error("Failed to encode image: %v", err)
		return nil, err
	}
	defer buf.Close()

	finalImage := make([]byte, len(buf.GetBytes()))
	copy(finalImage, buf.GetBytes())
	return finalImage, nil
}

// AnnotateMat draws a red box and a white "label (score)" caption per detection onto mat.
func AnnotateMat(mat *gocv.Mat, detections []detection.Detection) error {
	red := color.RGBA{R: 255, G: 0, B: 0, A: 0}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 0}

	for _, d := range detections {
		rect := image.Rect(int(d.BBox.X1()), int(d.BBox.Y1()), int(d.BBox.X2()), int(d.BBox.Y2()))
		if err := gocv.Rectangle(mat, rect, red, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %v", err)
		}

		label := fmt.Sprintf("%s (%.2f)", d.Label, d.Confidence)
		pt := image.Pt(rect.Min.X, rect.Min.Y-10)
		if err := gocv.PutText(mat, label, pt, gocv.FontHersheySimplex, 0.6, white, 2); err != nil {
			return fmt.Errorf("failed to draw text: %v", err)
		}
	}
	return nil
}

// Close releases every network in the pool.
func (s *DetectorService) Close() {
	s.closeOnce.Do(s.closeNets)
}

func (s *DetectorService) closeNets() {
	s.loaded = false
	for _, net := range s.all {
		net.Close()
	}
	s.all = nil
}

// outputShape reads attrs and anchors from a [1, attrs, anchors] YOLOv8 head.
func outputShape(out gocv.Mat) (int, int, error) {
	size := out.Size()
	if len(size) != 3 {
		return 0, 0, fmt.Errorf("unexpected output shape %v", size)
	}
	return size[1], size[2], nil
}

func getOutputNames(net *gocv.Net) []string {
	var outputLayers []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		if name := layer.GetName(); name != "_input" {
			outputLayers = append(outputLayers, name)
		}
	}
	return outputLayers
}
