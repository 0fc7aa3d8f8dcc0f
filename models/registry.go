// Package models - registry for models.
package models

import (
	"fmt"

	"github.com/nvr-ai/navassist/models/model"
	"github.com/nvr-ai/navassist/models/yolov8"
)

// NewModel creates a new detection model instance based on the specified model name.
//
// Arguments:
//   - args: Configuration parameters specifying the model type, location and thresholds.
//
// Returns:
//   - model.Model: A fully configured model instance implementing the Model interface.
//   - error: An error if the model name is unsupported or validation fails.
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Config.Name {
	case model.ModelNameYOLOv8, "":
		m, err := yolov8.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model name: %s", args.Config.Name)
	}
}
