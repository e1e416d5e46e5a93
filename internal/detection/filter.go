package detection

import (
	"fmt"
	"sort"
)

// Report is the structured outcome for one image.
type Report struct {
	Amount     int            `json:"amount"`
	Products   map[string]int `json:"products"`
	Detections []Detection    `json:"detections"`
}

// Label resolves a class index against names, falling back to class_<i>.
func Label(names []string, classID int) string {
	if classID >= 0 && classID < len(names) {
		return names[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// Filter drops candidates scoring below threshold and resolves labels.
// Input order is preserved.
func Filter(raw []Raw, names []string, threshold float64) []Detection {
	detections := make([]Detection, 0, len(raw))
	for _, r := range raw {
		if r.Score < threshold {
			continue
		}
		detections = append(detections, Detection{
			Label:      Label(names, r.ClassID),
			Confidence: r.Score,
			BBox:       r.Box,
		})
	}
	return detections
}

// Tally counts detections per label.
func Tally(detections []Detection) map[string]int {
	counts := make(map[string]int)
	for _, d := range detections {
		counts[d.Label]++
	}
	return counts
}

// Summarize builds a Report from filtered detections.
func Summarize(detections []Detection) Report {
	if detections == nil {
		detections = []Detection{}
	}
	return Report{
		Amount:     len(detections),
		Products:   Tally(detections),
		Detections: detections,
	}
}

// SortByScore orders candidates by descending score, keeping ties stable.
func SortByScore(raw []Raw) {
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].Score > raw[j].Score
	})
}
