package camera

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// CaptureSource reads frames from a capture device or a video file with OpenCV.
type CaptureSource struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	looping bool
	name    string
}

// NewCaptureSource opens the device or file named by cfg.
//
// Arguments:
//   - cfg: The source selection. File is used when set, otherwise Device.
//
// Returns:
//   - *CaptureSource: The opened source.
//   - error: An error if the device or file cannot be opened.
func NewCaptureSource(cfg Config) (*CaptureSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
		name    string
	)
	if cfg.File != "" {
		name = cfg.File
		capture, err = gocv.OpenVideoCapture(cfg.File)
	} else {
		name = "device"
		capture, err = gocv.OpenVideoCapture(cfg.Device)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture %s", name)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("capture %s is not opened", name)
	}

	if cfg.Width > 0 && cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	return &CaptureSource{
		capture: capture,
		frame:   gocv.NewMat(),
		looping: cfg.File != "",
		name:    name,
	}, nil
}

// Read grabs the next frame. Video files restart from the first frame at the end.
func (s *CaptureSource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil, errors.Wrap(ErrFrameUnavailable, "capture closed")
	}

	ok := s.capture.Read(&s.frame)
	if (!ok || s.frame.Empty()) && s.looping {
		s.capture.Set(gocv.VideoCapturePosFrames, 0)
		ok = s.capture.Read(&s.frame)
	}
	if !ok || s.frame.Empty() {
		return nil, errors.Wrapf(ErrFrameUnavailable, "cannot read %s", s.name)
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame")
	}
	return img, nil
}

// Close releases the capture.
func (s *CaptureSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.frame.Close()
	s.capture = nil
	return errors.Wrap(err, "failed to close capture")
}
