package postprocess

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// navigationLabels covers the first ten classes, positionally.
var navigationLabels = []string{
	"person", "bicycle", "car", "motorcycle", "bus", "truck", "traffic light", "cat", "dog", "bird",
}

// rawTensor builds an all-zero output buffer for the default layout.
type rawTensor struct {
	data    []float32
	anchors int
}

func newRawTensor(classes, anchors int) *rawTensor {
	return &rawTensor{
		data:    make([]float32, (4+1+classes)*anchors),
		anchors: anchors,
	}
}

func (r *rawTensor) box(i int, cx, cy, w, h float32) *rawTensor {
	r.data[i] = cx
	r.data[r.anchors+i] = cy
	r.data[2*r.anchors+i] = w
	r.data[3*r.anchors+i] = h
	return r
}

func (r *rawTensor) objectness(i int, v float32) *rawTensor {
	r.data[4*r.anchors+i] = v
	return r
}

func (r *rawTensor) class(i, j int, p float32) *rawTensor {
	r.data[(5+j)*r.anchors+i] = p
	return r
}

func TestDecodeSingleCar(t *testing.T) {
	raw := newRawTensor(DefaultClassCount, DefaultAnchorCount).
		box(0, 0.5, 0.4, 0.3, 0.2).
		objectness(0, 1.0).
		class(0, 2, 0.5)

	got, err := Decode(raw.data, DefaultDecodeConfig(navigationLabels))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "car", got[0].Class)
	assert.Equal(t, float32(0.5), got[0].Confidence)
	assert.Equal(t, BBox{raw.data[0], raw.data[8400], raw.data[16800], raw.data[25200]}, got[0].BBox)
}

func TestDecodeThresholdsAreStrict(t *testing.T) {
	tests := []struct {
		name       string
		objectness float32
		prob       float32
		want       int
	}{
		{name: "objectness exactly at threshold", objectness: 0.3, prob: 1.0, want: 0},
		{name: "objectness just above threshold but low final", objectness: 0.31, prob: 1.0, want: 0},
		{name: "final confidence exactly at threshold", objectness: 0.8, prob: 0.5, want: 0},
		{name: "final confidence above threshold", objectness: 0.9, prob: 0.5, want: 1},
		{name: "zero class probability", objectness: 0.9, prob: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := newRawTensor(DefaultClassCount, DefaultAnchorCount).
				objectness(7, tt.objectness).
				class(7, 0, tt.prob)
			got, err := Decode(raw.data, DefaultDecodeConfig(navigationLabels))
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestDecodeTieKeepsLowestIndex(t *testing.T) {
	raw := newRawTensor(DefaultClassCount, DefaultAnchorCount).
		objectness(3, 1.0).
		class(3, 8, 0.7).
		class(3, 1, 0.7).
		class(3, 5, 0.6)

	got, err := Decode(raw.data, DefaultDecodeConfig(navigationLabels))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bicycle", got[0].Class)
}

func TestDecodeDropsUnrecognizedClasses(t *testing.T) {
	raw := newRawTensor(DefaultClassCount, DefaultAnchorCount).
		objectness(0, 1.0).class(0, 42, 0.9).
		objectness(1, 1.0).class(1, 9, 0.9)

	got, err := Decode(raw.data, DefaultDecodeConfig(navigationLabels))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bird", got[0].Class)

	sparse := make([]string, 10)
	sparse[9] = "bird"
	sparse[2] = "car"
	raw = newRawTensor(DefaultClassCount, DefaultAnchorCount).
		objectness(0, 1.0).class(0, 3, 0.9)
	got, err = Decode(raw.data, DefaultDecodeConfig(sparse))
	require.NoError(t, err)
	assert.Empty(t, got, "empty labels are not recognized")
}

func TestDecodeAnchorOrderAndDeterminism(t *testing.T) {
	raw := newRawTensor(DefaultClassCount, DefaultAnchorCount)
	for _, i := range []int{8399, 12, 400, 0} {
		raw.objectness(i, 0.95).class(i, i%10, 0.9).box(i, 0.1, 0.1, 0.1, 0.1)
	}
	// Overlapping duplicates of one object are reported separately.
	raw.objectness(401, 0.95).class(401, 0, 0.9).box(401, 0.1, 0.1, 0.1, 0.1)

	cfg := DefaultDecodeConfig(navigationLabels)
	first, err := Decode(raw.data, cfg)
	require.NoError(t, err)
	second, err := Decode(raw.data, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 5)
	assert.Equal(t, []string{"person", "car", "person", "person", "bird"},
		[]string{first[0].Class, first[1].Class, first[2].Class, first[3].Class, first[4].Class})
}

func TestDecodeInvariants(t *testing.T) {
	raw := newRawTensor(DefaultClassCount, DefaultAnchorCount)
	for i := 0; i < DefaultAnchorCount; i += 7 {
		raw.objectness(i, float32(i%100)/100).class(i, i%DefaultClassCount, float32(i%13)/12)
	}

	got, err := Decode(raw.data, DefaultDecodeConfig(navigationLabels))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, d := range got {
		assert.Greater(t, d.Confidence, DefaultConfidenceThreshold)
		assert.LessOrEqual(t, d.Confidence, float32(1))
		assert.Contains(t, navigationLabels, d.Class)
	}
}

func TestDecodeShapeMismatch(t *testing.T) {
	_, err := Decode(make([]float32, 10), DefaultDecodeConfig(navigationLabels))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
}

func TestDecodeInvalidConfig(t *testing.T) {
	cfg := DefaultDecodeConfig(navigationLabels)
	cfg.AnchorCount = 0
	_, err := Decode(nil, cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	cfg = DefaultDecodeConfig(navigationLabels)
	cfg.BoxScale = -1
	_, err = Decode(nil, cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDecodeBoxScale(t *testing.T) {
	raw := newRawTensor(2, 4).
		box(1, 160, 80, 400, 32).
		objectness(1, 0.9).
		class(1, 1, 0.9)

	cfg := DecodeConfig{
		AnchorCount:         4,
		ClassCount:          2,
		Classes:             []string{"person", "car"},
		ObjectnessThreshold: DefaultObjectnessThreshold,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		BoxScale:            320,
	}
	got, err := Decode(raw.data, cfg)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "car", got[0].Class)
	assert.InDelta(t, 0.5, got[0].BBox.CX(), 1e-6)
	assert.InDelta(t, 0.25, got[0].BBox.CY(), 1e-6)
	assert.InDelta(t, 1.0, got[0].BBox.Width(), 1e-6, "clamped to the frame")
	assert.InDelta(t, 0.1, got[0].BBox.Height(), 1e-6)
}

func TestOutputShape(t *testing.T) {
	s := OutputShape(80, 8400)
	assert.Equal(t, []int{1, 85, 8400}, []int(s))
	assert.Equal(t, 85*8400, s.TotalSize())
}

// BenchmarkDecode measures a full pass over the default 8400-anchor output.
func BenchmarkDecode(b *testing.B) {
	raw := newRawTensor(DefaultClassCount, DefaultAnchorCount)
	for i := 0; i < DefaultAnchorCount; i += 97 {
		raw.box(i, 0.5, 0.5, 0.2, 0.2).objectness(i, 0.9).class(i, i%DefaultClassCount, 0.8)
	}
	cfg := DefaultDecodeConfig(navigationLabels)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Decode(raw.data, cfg); err != nil {
			b.Fatalf("decode failed: %v", err)
		}
	}
}
