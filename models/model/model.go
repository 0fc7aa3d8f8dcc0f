// Package model - Description of a detection model and its tensor contract.
package model

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/navassist/models/postprocess"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameYOLOv8 is the name of the YOLOv8 (nano) model.
	ModelNameYOLOv8 Name = "yolov8"
)

// Config describes where a model lives and how its tensors are laid out.
type Config struct {
	// Name selects the model implementation.
	Name Name `json:"name" yaml:"name"`
	// Path is the ONNX model file.
	Path string `json:"path" yaml:"path"`
	// Input is the input node name.
	Input string `json:"input" yaml:"input"`
	// Output is the output node name.
	Output string `json:"output" yaml:"output"`
	// InputSize is the square input edge S of the [1,3,S,S] input tensor.
	InputSize int `json:"input_size" yaml:"input_size"`
	// AnchorCount is the number of anchors A of the output tensor.
	AnchorCount int `json:"anchor_count" yaml:"anchor_count"`
	// ClassCount is the number of class planes C of the output tensor.
	ClassCount int `json:"class_count" yaml:"class_count"`
	// PixelBoxes is true when the model emits boxes in input pixels instead of [0,1].
	// They are then divided by InputSize and clamped. The default emits boxes as is.
	PixelBoxes bool `json:"pixel_boxes" yaml:"pixel_boxes"`
}

// Validate checks the description for values that cannot form a tensor.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("model path is required")
	}
	if c.Input == "" || c.Output == "" {
		return errors.Errorf("model input and output names are required, got %q and %q", c.Input, c.Output)
	}
	if c.InputSize <= 0 {
		return errors.Errorf("model input size must be positive, got %d", c.InputSize)
	}
	if c.AnchorCount <= 0 || c.ClassCount <= 0 {
		return errors.Errorf("model anchor and class counts must be positive, got %d and %d",
			c.AnchorCount, c.ClassCount)
	}
	return nil
}

// Model is a detection model: its tensor shapes and how to read its output.
type Model interface {
	// Options returns the model description.
	Options() Config
	// InputShape returns the input tensor shape.
	InputShape() tensor.Shape
	// OutputShape returns the output tensor shape.
	OutputShape() tensor.Shape
	// PostProcess converts the raw output buffer into detections.
	PostProcess(output []float32) ([]postprocess.Detection, error)
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Config Config `json:"config" yaml:"config"`
	// Decode holds the thresholds and recognized labels. Layout fields are taken from Config.
	Decode postprocess.DecodeConfig `json:"decode" yaml:"decode"`
}
