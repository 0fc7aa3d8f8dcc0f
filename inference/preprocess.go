package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// InputShape returns the [1, 3, S, S] shape of a square RGB input tensor.
func InputShape(size int) tensor.Shape {
	return tensor.Shape{1, 3, size, size}
}

// PrepareInput prepares the input for the ONNX model before inference is
// called.
//
// The frame is stretched (not letterboxed) to size x size, then written in planar
// CHW RGB order with values scaled to [0, 1].
//
// Arguments:
//   - img: The frame to prepare.
//   - dst: The destination tensor data to populate.
//   - size: The square input edge of the model.
//
// Returns:
//   - error: An error if the input preparation fails.
func PrepareInput(img image.Image, dst []float32, size int) error {
	if img == nil || img.Bounds().Empty() {
		return errors.New("cannot prepare an empty frame")
	}
	if size <= 0 {
		return errors.Errorf("input size must be positive, got %d", size)
	}
	channelSize := size * size
	if len(dst) < channelSize*3 {
		return errors.Errorf("destination tensor only holds %d floats, needs "+
			"%d (make sure it's the right shape!)", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	}

	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		i := 0
		for y := 0; y < size; y++ {
			row := rgba.Pix[rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < size; x++ {
				px := row[x*4 : x*4+3]
				red[i] = float32(px[0]) / 255.0
				green[i] = float32(px[1]) / 255.0
				blue[i] = float32(px[2]) / 255.0
				i++
			}
		}
		return nil
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+size; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+size; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
