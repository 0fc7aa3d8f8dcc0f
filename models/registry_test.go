package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/navassist/models/model"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/models/yolov8"
)

func TestNewModel(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{
		Config: yolov8.DefaultConfig("yolov8n.onnx"),
		Decode: postprocess.DefaultDecodeConfig(NavigationClasses),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameYOLOv8, m.Options().Name)

	cfg := yolov8.DefaultConfig("x.onnx")
	cfg.Name = "rtdetr"
	_, err = NewModel(model.NewModelArgs{Config: cfg})
	assert.Error(t, err)
}
