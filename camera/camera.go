// Package camera provides the frames the navigation loop analyses.
package camera

import (
	"context"
	"image"

	"github.com/pkg/errors"
)

// ErrFrameUnavailable is returned when a source has no frame to hand out.
var ErrFrameUnavailable = errors.New("frame unavailable")

// Source hands out the most recent frame.
type Source interface {
	// Read returns the current frame. The caller must not modify it.
	Read(ctx context.Context) (image.Image, error)
	// Close releases the underlying device or file.
	Close() error
}

// Config selects a frame source. Image wins over Dir, Dir over File and File over Device.
type Config struct {
	// Device is the capture device id. The rear camera of a phone is usually 0 on Linux.
	Device int `json:"device" yaml:"device"`
	// File is a video file read in a loop instead of a device.
	File string `json:"file" yaml:"file"`
	// Image is a still image served on every read.
	Image string `json:"image" yaml:"image"`
	// Dir is a directory of recorded frames replayed in a loop.
	Dir string `json:"dir" yaml:"dir"`
	// Width and Height request a capture resolution. Zero keeps the device default.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Validate checks the source selection.
func (c Config) Validate() error {
	if c.Image == "" && c.Dir == "" && c.File == "" && c.Device < 0 {
		return errors.Errorf("camera device must not be negative, got %d", c.Device)
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.Errorf("camera resolution must not be negative, got %dx%d", c.Width, c.Height)
	}
	return nil
}

// Open creates the source described by cfg.
func Open(cfg Config) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Image != "" {
		return NewStillSource(cfg.Image)
	}
	if cfg.Dir != "" {
		return NewDirectorySource(cfg.Dir)
	}
	return NewCaptureSource(cfg)
}
