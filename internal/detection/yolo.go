package detection

import (
	"fmt"
	"math"
)

// MaxDetections caps the number of candidates kept per image after NMS.
const MaxDetections = 300

// Letterbox describes how an image of Width x Height was scaled and padded
// into a square network input of Size pixels. It mirrors OpenCV's
// DNN_PMODE_LETTERBOX: integer resized dimensions, padding split evenly with
// the remainder on the bottom/right.
type Letterbox struct {
	Width, Height int
	Size          int
	Scale         float64
	PadX, PadY    int
}

func NewLetterbox(width, height, size int) Letterbox {
	scale := math.Min(float64(size)/float64(width), float64(size)/float64(height))
	rw := int(float64(width) * scale)
	rh := int(float64(height) * scale)
	return Letterbox{
		Width:  width,
		Height: height,
		Size:   size,
		Scale:  scale,
		PadX:   (size - rw) / 2,
		PadY:   (size - rh) / 2,
	}
}

// ToImage maps a box in network input coordinates back onto the original image, clipped to its bounds.
func (l Letterbox) ToImage(b Box) Box {
	x1 := (b[0] - float64(l.PadX)) / l.Scale
	y1 := (b[1] - float64(l.PadY)) / l.Scale
	x2 := (b[2] - float64(l.PadX)) / l.Scale
	y2 := (b[3] - float64(l.PadY)) / l.Scale
	return Box{
		clamp(x1, 0, float64(l.Width)),
		clamp(y1, 0, float64(l.Height)),
		clamp(x2, 0, float64(l.Width)),
		clamp(y2, 0, float64(l.Height)),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DecodeYOLOv8 reads a YOLOv8 detection head laid out as [attrs][anchors]
// (attrs = 4 box values + one score per class) and returns every anchor whose
// best class score is above floor. Boxes stay in network input coordinates.
func DecodeYOLOv8(out []float32, attrs, anchors int, floor float64) ([]Raw, error) {
	if attrs <= 4 {
		return nil, fmt.Errorf("output has %d attributes, need box plus at least one class", attrs)
	}
	if len(out) < attrs*anchors {
		return nil, fmt.Errorf("output holds %d values, expected %d", len(out), attrs*anchors)
	}

	var candidates []Raw
	for i := 0; i < anchors; i++ {
		classID := -1
		best := float32(0)
		for c := 4; c < attrs; c++ {
			if score := out[c*anchors+i]; classID == -1 || score > best {
				best = score
				classID = c - 4
			}
		}

		if float64(best) <= floor {
			continue
		}

		cx := float64(out[0*anchors+i])
		cy := float64(out[1*anchors+i])
		w := float64(out[2*anchors+i])
		h := float64(out[3*anchors+i])

		candidates = append(candidates, Raw{
			ClassID: classID,
			Score:   float64(best),
			Box:     Box{cx - w/2, cy - h/2, cx + w/2, cy + h/2},
		})
	}

	return candidates, nil
}

// GroupByClass splits candidates by class index for class-aware NMS.
func GroupByClass(raw []Raw) map[int][]Raw {
	groups := make(map[int][]Raw)
	for _, r := range raw {
		groups[r.ClassID] = append(groups[r.ClassID], r)
	}
	return groups
}
