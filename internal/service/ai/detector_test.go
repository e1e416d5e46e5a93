package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"productvision/internal/config"
	"productvision/internal/detection"
	"productvision/internal/logger"

	"gocv.io/x/gocv"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ModelPath:        filepath.Join(dir, "best.onnx"),
		ClassNamesPath:   filepath.Join(dir, "best.names"),
		InputSize:        640,
		NMSThreshold:     0.7,
		InferenceWorkers: 2,
	}
}

func encodedImage(t *testing.T, ext gocv.FileExt) []byte {
	t.Helper()

	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(40, 80, 120, 0))

	buf, err := gocv.IMEncode(ext, mat)
	if err != nil {
		t.Fatalf("IMEncode failed: %v", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...)
}

func TestNewDetectorService_MissingModel(t *testing.T) {
	service := NewDetectorService(testConfig(t), logger.NewDiscard())
	defer service.Close()

	if service.Loaded() {
		t.Fatal("Expected service without weights to report not loaded")
	}

	_, err := service.Predict(context.Background(), []byte("img"), 0.5)
	if !errors.Is(err, detection.ErrModelNotLoaded) {
		t.Errorf("Expected ErrModelNotLoaded, got %v", err)
	}
}

func TestNewDetectorService_EmptyModel(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.ModelPath, nil, 0644); err != nil {
		t.Fatalf("Failed to write model: %v", err)
	}

	service := NewDetectorService(cfg, logger.NewDiscard())
	defer service.Close()

	if service.Loaded() {
		t.Error("Expected empty weights file to leave the model unloaded")
	}
}

func TestAnnotate_EncodesRequestedFormat(t *testing.T) {
	service := &DetectorService{logger: logger.NewDiscard()}
	img := encodedImage(t, gocv.FileExt(".jpg"))

	dets := []detection.Detection{
		{Label: "aqua", Confidence: 0.87, BBox: detection.Box{5, 15, 30, 40}},
	}
	out, err := service.Annotate(img, dets, ".png")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	pngMagic := []byte{0x89, 'P', 'N', 'G'}
	if len(out) < 4 || string(out[:4]) != string(pngMagic) {
		t.Error("Expected PNG encoded output")
	}

	decoded, err := gocv.IMDecode(out, gocv.IMReadColor)
	if err != nil {
		t.Fatalf("Failed to decode annotated image: %v", err)
	}
	defer decoded.Close()
	if decoded.Cols() != 64 || decoded.Rows() != 48 {
		t.Errorf("Expected 64x48, got %dx%d", decoded.Cols(), decoded.Rows())
	}
}

func TestAnnotate_InvalidImage(t *testing.T) {
	service := &DetectorService{logger: logger.NewDiscard()}

	_, err := service.Annotate([]byte("not an image"), nil, ".png")
	if !errors.Is(err, detection.ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
}

func TestAnnotateMat_DrawsBox(t *testing.T) {
	mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer mat.Close()
	mat.SetTo(gocv.NewScalar(0, 0, 0, 0))

	dets := []detection.Detection{{Label: "indomie", Confidence: 0.9, BBox: detection.Box{10, 20, 40, 40}}}
	if err := AnnotateMat(&mat, dets); err != nil {
		t.Fatalf("AnnotateMat failed: %v", err)
	}

	// Box edges are red in BGR order.
	px := mat.GetVecbAt(30, 10)
	if px[0] != 0 || px[1] != 0 || px[2] != 255 {
		t.Errorf("Expected red pixel on box edge, got %v", px)
	}
}

func TestFirstOutput_ClosesEmptyHead(t *testing.T) {
	outs := []gocv.Mat{gocv.NewMat()}

	out, err := firstOutput(outs)
	defer out.Close()
	if !errors.Is(err, errNoOutput) {
		t.Fatalf("Expected errNoOutput, got %v", err)
	}
	if outs[0].Ptr() != nil {
		t.Error("Expected empty head to be closed")
	}
}

func TestFirstOutput_KeepsHeadClosesRest(t *testing.T) {
	outs := []gocv.Mat{
		gocv.NewMatWithSize(2, 2, gocv.MatTypeCV32F),
		gocv.NewMatWithSize(2, 2, gocv.MatTypeCV32F),
	}

	out, err := firstOutput(outs)
	if err != nil {
		t.Fatalf("firstOutput failed: %v", err)
	}
	defer out.Close()

	if out.Empty() {
		t.Error("Expected head to be returned open")
	}
	if outs[1].Ptr() != nil {
		t.Error("Expected extra outputs to be closed")
	}
}

func TestFirstOutput_NoOutputs(t *testing.T) {
	out, err := firstOutput(nil)
	defer out.Close()
	if !errors.Is(err, errNoOutput) {
		t.Errorf("Expected errNoOutput, got %v", err)
	}
}
