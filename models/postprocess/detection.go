// Package postprocess - Decoding of raw detector output into labelled detections.
package postprocess

import "fmt"

// BBox is a box in center format: [cx, cy, w, h].
type BBox [4]float32

// CX returns the horizontal center of the box.
func (b BBox) CX() float32 { return b[0] }

// CY returns the vertical center of the box.
func (b BBox) CY() float32 { return b[1] }

// Width returns the width of the box.
func (b BBox) Width() float32 { return b[2] }

// Height returns the height of the box.
func (b BBox) Height() float32 { return b[3] }

// Area returns width * height.
func (b BBox) Area() float32 { return b[2] * b[3] }

// Corners returns the box as (x1, y1, x2, y2).
func (b BBox) Corners() (x1, y1, x2, y2 float32) {
	return b[0] - b[2]/2, b[1] - b[3]/2, b[0] + b[2]/2, b[1] + b[3]/2
}

// Detection is a single labelled object found in a frame.
type Detection struct {
	// Class is one of the recognized labels.
	Class string `json:"class"`
	// Confidence is objectness * best class probability.
	Confidence float32 `json:"confidence"`
	// BBox is the box of the object.
	BBox BBox `json:"bbox"`
}

// Distance estimates the proximity of the detection from its box area.
func (d Detection) Distance() DistanceEstimate {
	return EstimateDistance(d.BBox)
}

func (d Detection) String() string {
	return fmt.Sprintf("Object %s (confidence %f): center (%f, %f) size (%f, %f)",
		d.Class, d.Confidence, d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3])
}
