package postprocess

import (
	"sort"

	"github.com/chewxy/math32"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`             // If false, detections pass through untouched.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"` // Overlap threshold for suppression.
	ClassAware   bool    `json:"class_aware" yaml:"class_aware"`     // If true, suppress only within same class.
}

// DefaultNMSConfig returns a disabled configuration with a conventional threshold.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{Enabled: false, IoUThreshold: 0.7, ClassAware: true}
}

// IoU returns the intersection over union of two center-format boxes.
func IoU(a, b BBox) float32 {
	ax1, ay1, ax2, ay2 := a.Corners()
	bx1, by1, bx2, by2 := b.Corners()

	interW := math32.Min(ax2, bx2) - math32.Max(ax1, bx1)
	interH := math32.Min(ay2, by2) - math32.Max(ay1, by1)
	if interW <= 0 || interH <= 0 {
		return 0
	}
	inter := interW * interH
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// Decode never calls this; it is an opt-in stage for callers that want duplicate
// boxes of the same object merged.
//
// Arguments:
//   - detections: Detections in any order. The slice is not modified.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered detections, highest confidence first. When disabled the input is returned as is.
func ApplyGreedyNMS(detections []Detection, config NMSConfig) []Detection {
	if !config.Enabled || len(detections) == 0 {
		return detections
	}

	sorted := make([]Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	filtered := make([]Detection, 0, len(sorted))
	used := make([]bool, len(sorted))

	for i := range sorted {
		if used[i] {
			continue
		}
		anchor := sorted[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < len(sorted); j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && sorted[j].Class != anchor.Class {
				continue
			}
			if IoU(anchor.BBox, sorted[j].BBox) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
