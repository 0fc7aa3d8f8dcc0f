package postprocess

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

const (
	// DefaultAnchorCount is the number of candidate slots a 640/320 YOLOv8 head evaluates.
	DefaultAnchorCount = 8400
	// DefaultClassCount is the number of classes the upstream model was trained on.
	DefaultClassCount = 80
	// DefaultObjectnessThreshold drops anchors that are unlikely to hold any object.
	DefaultObjectnessThreshold float32 = 0.3
	// DefaultConfidenceThreshold drops anchors whose final confidence is too low.
	DefaultConfidenceThreshold float32 = 0.4

	// boxPlanes is the number of geometry planes (cx, cy, w, h).
	boxPlanes = 4
	// objectnessPlane is the index of the objectness plane.
	objectnessPlane = 4
	// classPlaneOffset is the index of the first class probability plane.
	classPlaneOffset = 5
)

var (
	// ErrShapeMismatch is returned when the output buffer does not match the configured shape.
	ErrShapeMismatch = errors.New("output tensor shape mismatch")
	// ErrInvalidConfig is returned when the decode configuration cannot describe a tensor.
	ErrInvalidConfig = errors.New("invalid decode config")
)

// DecodeConfig describes the output tensor layout and the filter thresholds.
type DecodeConfig struct {
	// AnchorCount is the number of anchors (A).
	AnchorCount int `json:"anchor_count" yaml:"anchor_count"`
	// ClassCount is the number of class planes (C).
	ClassCount int `json:"class_count" yaml:"class_count"`
	// Classes maps class index to label. Indices past the end, or empty labels, are
	// not recognized and never emitted.
	Classes []string `json:"classes" yaml:"classes"`
	// ObjectnessThreshold must be strictly exceeded by the objectness score.
	ObjectnessThreshold float32 `json:"objectness_threshold" yaml:"objectness_threshold"`
	// ConfidenceThreshold must be strictly exceeded by objectness * class probability.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// BoxScale, when positive, divides box values and clamps them to [0, 1]. Models
	// that emit boxes in input pixels set it to the input size. Zero keeps raw values.
	BoxScale float32 `json:"box_scale" yaml:"box_scale"`
}

// DefaultDecodeConfig returns the thresholds and layout of the upstream model.
func DefaultDecodeConfig(classes []string) DecodeConfig {
	return DecodeConfig{
		AnchorCount:         DefaultAnchorCount,
		ClassCount:          DefaultClassCount,
		Classes:             classes,
		ObjectnessThreshold: DefaultObjectnessThreshold,
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}
}

// OutputShape returns the logical shape [1, 4+1+C, A] of the raw output tensor.
func OutputShape(classCount, anchorCount int) tensor.Shape {
	return tensor.Shape{1, boxPlanes + 1 + classCount, anchorCount}
}

// Validate checks that the configuration describes a usable tensor.
func (c DecodeConfig) Validate() error {
	if c.AnchorCount <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "anchor count must be positive, got %d", c.AnchorCount)
	}
	if c.ClassCount <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "class count must be positive, got %d", c.ClassCount)
	}
	if c.BoxScale < 0 {
		return errors.Wrapf(ErrInvalidConfig, "box scale must not be negative, got %f", c.BoxScale)
	}
	return nil
}

// Decode converts a raw channel-major output tensor into detections.
//
// For every anchor (in ascending order) the objectness score must exceed
// ObjectnessThreshold, the best class is picked with a strict ">" scan so ties keep
// the lowest index, and objectness * probability must exceed ConfidenceThreshold.
// Anchors whose best class has no recognized label are dropped. Overlapping boxes
// are not merged.
//
// Arguments:
//   - output: The flat output buffer of length (4+1+C)*A.
//   - cfg: The layout and thresholds.
//
// Returns:
//   - []Detection: The detections in anchor order.
//   - error: ErrInvalidConfig or ErrShapeMismatch.
func Decode(output []float32, cfg DecodeConfig) ([]Detection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	want := OutputShape(cfg.ClassCount, cfg.AnchorCount).TotalSize()
	if len(output) != want {
		return nil, errors.Wrapf(ErrShapeMismatch, "got %d values, want %d for shape %v",
			len(output), want, OutputShape(cfg.ClassCount, cfg.AnchorCount))
	}

	a := cfg.AnchorCount
	detections := make([]Detection, 0)

	for i := 0; i < a; i++ {
		objectness := output[objectnessPlane*a+i]
		if !(objectness > cfg.ObjectnessThreshold) {
			continue
		}

		classID := -1
		best := float32(0)
		for j := 0; j < cfg.ClassCount; j++ {
			if p := output[(classPlaneOffset+j)*a+i]; p > best {
				best = p
				classID = j
			}
		}

		confidence := objectness * best
		if !(confidence > cfg.ConfidenceThreshold) || classID < 0 {
			continue
		}
		if classID >= len(cfg.Classes) || cfg.Classes[classID] == "" {
			continue
		}

		detections = append(detections, Detection{
			Class:      cfg.Classes[classID],
			Confidence: confidence,
			BBox:       cfg.box(output, i),
		})
	}

	return detections, nil
}

// box reads the geometry planes of an anchor.
func (c DecodeConfig) box(output []float32, i int) BBox {
	a := c.AnchorCount
	b := BBox{output[i], output[a+i], output[2*a+i], output[3*a+i]}
	if c.BoxScale > 0 {
		for k := range b {
			b[k] = clamp01(b[k] / c.BoxScale)
		}
	}
	return b
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
