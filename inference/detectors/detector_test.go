package detectors

import (
	"context"
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/navassist/models"
	"github.com/nvr-ai/navassist/models/model"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/models/yolov8"
	"github.com/nvr-ai/navassist/profiler"
)

type fakeEngine struct {
	output []float32
	err    error
	closed bool
}

func (f *fakeEngine) Infer(context.Context, image.Image) ([]float32, error) {
	return f.output, f.err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

const (
	testClasses = 80
	testAnchors = 4
)

func testModel(t *testing.T) model.Model {
	t.Helper()
	recognized, err := models.YOLOClasses.Recognized(models.NavigationClasses)
	require.NoError(t, err)

	cfg := yolov8.DefaultConfig("model.onnx")
	cfg.AnchorCount = testAnchors
	m, err := yolov8.NewModel(model.NewModelArgs{
		Config: cfg,
		Decode: postprocess.DefaultDecodeConfig(recognized),
	})
	require.NoError(t, err)
	return m
}

// output builds a channel-major buffer with the same confident car in two anchors.
func output() []float32 {
	planes := 5 + testClasses
	buf := make([]float32, planes*testAnchors)
	set := func(plane, anchor int, v float32) { buf[plane*testAnchors+anchor] = v }
	for _, a := range []int{0, 2} {
		set(0, a, 0.5)
		set(1, a, 0.5)
		set(2, a, 0.2)
		set(3, a, 0.2)
		set(4, a, 0.9)
		set(5+2, a, 0.8)
	}
	return buf
}

func TestDetect(t *testing.T) {
	p := profiler.New(profiler.Options{})
	d, err := NewDetector(NewDetectorArgs{
		Engine:   &fakeEngine{output: output()},
		Model:    testModel(t),
		Profiler: p,
	})
	require.NoError(t, err)

	detections, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, "car", detections[0].Class)
	assert.InDelta(t, 0.72, detections[0].Confidence, 1e-6)

	inf, ok := p.Operation(profiler.OperationInference)
	require.True(t, ok)
	assert.EqualValues(t, 1, inf.Count)
	_, ok = p.Operation(profiler.OperationDecode)
	assert.True(t, ok)
}

func TestDetectWithNMS(t *testing.T) {
	nms := postprocess.DefaultNMSConfig()
	nms.Enabled = true
	d, err := NewDetector(NewDetectorArgs{
		Engine: &fakeEngine{output: output()},
		Model:  testModel(t),
		NMS:    nms,
	})
	require.NoError(t, err)

	detections, err := d.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Len(t, detections, 1)
}

func TestDetectErrors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	d, err := NewDetector(NewDetectorArgs{
		Engine: &fakeEngine{err: context.DeadlineExceeded},
		Model:  testModel(t),
	})
	require.NoError(t, err)
	_, err = d.Detect(context.Background(), img)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	d, err = NewDetector(NewDetectorArgs{
		Engine: &fakeEngine{output: make([]float32, 3)},
		Model:  testModel(t),
	})
	require.NoError(t, err)
	_, err = d.Detect(context.Background(), img)
	assert.Equal(t, postprocess.ErrShapeMismatch, errors.Cause(err))
}

func TestNewDetectorRequiresDependencies(t *testing.T) {
	_, err := NewDetector(NewDetectorArgs{Model: testModel(t)})
	assert.Error(t, err)
	_, err = NewDetector(NewDetectorArgs{Engine: &fakeEngine{}})
	assert.Error(t, err)
}

func TestDetectorClose(t *testing.T) {
	engine := &fakeEngine{}
	d, err := NewDetector(NewDetectorArgs{Engine: engine, Model: testModel(t)})
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.True(t, engine.closed)
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.NMS.Enabled)

	decode := cfg.Apply(postprocess.DecodeConfig{})
	assert.Equal(t, float32(0.3), decode.ObjectnessThreshold)
	assert.Equal(t, float32(0.4), decode.ConfidenceThreshold)

	cfg.ConfidenceThreshold = 1
	assert.Error(t, cfg.Validate())
}
