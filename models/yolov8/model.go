// Package yolov8 - YOLOv8 model.
package yolov8

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/navassist/models/model"
	"github.com/nvr-ai/navassist/models/postprocess"
)

const (
	// DefaultInputName is the input node of Ultralytics ONNX exports.
	DefaultInputName = "images"
	// DefaultOutputName is the output node of Ultralytics ONNX exports.
	DefaultOutputName = "output0"
	// DefaultInputSize is the input edge the navigation model is exported with.
	DefaultInputSize = 320
)

// YOLOv8 is the instance of the YOLOv8 model.
type YOLOv8 struct {
	options model.Config
	decode  postprocess.DecodeConfig
}

// DefaultConfig returns the description of the yolov8n export used for navigation.
func DefaultConfig(path string) model.Config {
	return model.Config{
		Name:        model.ModelNameYOLOv8,
		Path:        path,
		Input:       DefaultInputName,
		Output:      DefaultOutputName,
		InputSize:   DefaultInputSize,
		AnchorCount: postprocess.DefaultAnchorCount,
		ClassCount:  postprocess.DefaultClassCount,
	}
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - *YOLOv8: The model.
//   - error: An error if the description or thresholds are invalid.
func NewModel(args model.NewModelArgs) (*YOLOv8, error) {
	if err := args.Config.Validate(); err != nil {
		return nil, errors.Wrap(err, "yolov8")
	}

	decode := args.Decode
	decode.AnchorCount = args.Config.AnchorCount
	decode.ClassCount = args.Config.ClassCount
	decode.BoxScale = 0
	if args.Config.PixelBoxes {
		decode.BoxScale = float32(args.Config.InputSize)
	}
	if err := decode.Validate(); err != nil {
		return nil, errors.Wrap(err, "yolov8")
	}

	return &YOLOv8{options: args.Config, decode: decode}, nil
}

// Options returns the model description.
func (m *YOLOv8) Options() model.Config {
	return m.options
}

// InputShape returns [1, 3, S, S].
func (m *YOLOv8) InputShape() tensor.Shape {
	return tensor.Shape{1, 3, m.options.InputSize, m.options.InputSize}
}

// OutputShape returns [1, 4+1+C, A].
func (m *YOLOv8) OutputShape() tensor.Shape {
	return postprocess.OutputShape(m.options.ClassCount, m.options.AnchorCount)
}

// DecodeConfig returns the effective decode configuration.
func (m *YOLOv8) DecodeConfig() postprocess.DecodeConfig {
	return m.decode
}

// PostProcess decodes the output of the YOLOv8 model.
//
// Arguments:
//   - output: The raw output buffer.
//
// Returns:
//   - []postprocess.Detection: The detections in anchor order.
//   - error: An error if the buffer does not match the output shape.
func (m *YOLOv8) PostProcess(output []float32) ([]postprocess.Detection, error) {
	return postprocess.Decode(output, m.decode)
}
