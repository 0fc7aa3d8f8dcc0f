// Package controller - This file contains the polling driver that routes frames from the camera to
// the detector and the detections to the presentation and narration sinks.
package controller

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/models/postprocess"
)

var (
	// ErrAlreadyRunning is returned by Start while the loop is running.
	ErrAlreadyRunning = errors.New("navigation already running")
	// ErrNotInitialized is returned by Start before a successful Init.
	ErrNotInitialized = errors.New("navigation not initialized")
)

const (
	// DefaultInterval is the delay between the end of one tick and the start of the next.
	DefaultInterval = 3 * time.Second
	// DefaultInferenceTimeout bounds a single inference run.
	DefaultInferenceTimeout = 10 * time.Second
)

// Frame is a single frame of video.
type Frame struct {
	ID        int
	Image     image.Image
	Timestamp time.Time
}

// Source hands out the current camera frame.
type Source interface {
	Read(ctx context.Context) (image.Image, error)
}

// Detector is an interface for a detector.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error)
}

// Presenter renders the status line and the object list.
type Presenter interface {
	ShowStatus(text string)
	// ShowObjects renders the per-class counts of one tick. An empty summary
	// means nothing was detected.
	ShowObjects(summary postprocess.Summary)
}

// SetupStep is one fallible part of Init, e.g. loading the model or opening the camera.
type SetupStep struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config is a configuration for the polling loop.
type Config struct {
	// Interval is the delay between ticks.
	Interval time.Duration `json:"interval" yaml:"interval"`
	// InferenceTimeout bounds frame detection. Zero disables the bound.
	InferenceTimeout time.Duration `json:"inference_timeout" yaml:"inference_timeout"`
	// NarrateDistance adds the nearest object and its distance to the spoken summary.
	NarrateDistance bool `json:"narrate_distance" yaml:"narrate_distance"`
}

// DefaultConfig returns a 3s interval with a 10s inference bound.
func DefaultConfig() Config {
	return Config{
		Interval:         DefaultInterval,
		InferenceTimeout: DefaultInferenceTimeout,
		NarrateDistance:  true,
	}
}

// Validate checks the loop timings.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return errors.Errorf("loop interval must be positive, got %v", c.Interval)
	}
	if c.InferenceTimeout < 0 {
		return errors.Errorf("inference timeout must not be negative, got %v", c.InferenceTimeout)
	}
	return nil
}
