package camera

import (
	"context"
	"image"
	"io"
	"os"
	"sync"

	// Still image decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"
)

// StillSource serves one decoded image on every read.
type StillSource struct {
	mu     sync.RWMutex
	img    image.Image
	format string
}

// NewStillSource decodes the image at path.
func NewStillSource(path string) (*StillSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	defer f.Close()

	s, err := DecodeStill(f)
	if err != nil {
		return nil, errors.Wrapf(err, "image %s", path)
	}
	return s, nil
}

// DecodeStill decodes a JPEG, PNG, GIF, BMP, TIFF or WebP image from r.
func DecodeStill(r io.Reader) (*StillSource, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrap(ErrFrameUnavailable, "image is empty")
	}
	return &StillSource{img: img, format: format}, nil
}

// Format returns the name of the decoder that read the image.
func (s *StillSource) Format() string {
	return s.format
}

// Read returns the decoded image.
func (s *StillSource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.img == nil {
		return nil, errors.Wrap(ErrFrameUnavailable, "still source closed")
	}
	return s.img, nil
}

// Close drops the image.
func (s *StillSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = nil
	return nil
}
