// Package detectors - Detector configuration.
package detectors

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/models/postprocess"
)

// Config represents the detection thresholds applied after inference.
type Config struct {
	// ObjectnessThreshold gates anchors before the class scan (strict >).
	ObjectnessThreshold float32 `json:"objectness_threshold" yaml:"objectness_threshold"`

	// ConfidenceThreshold filters detections below this confidence level (strict >).
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// NMS controls the optional suppression pass. Disabled by default.
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`
}

// DefaultConfig returns the thresholds used by the navigation pipeline.
//
// Returns:
//   - Config: Objectness 0.3, confidence 0.4, NMS disabled.
func DefaultConfig() Config {
	return Config{
		ObjectnessThreshold: postprocess.DefaultObjectnessThreshold,
		ConfidenceThreshold: postprocess.DefaultConfidenceThreshold,
		NMS:                 postprocess.DefaultNMSConfig(),
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.ObjectnessThreshold < 0 || c.ObjectnessThreshold >= 1 {
		return errors.Errorf("objectness threshold must be in [0,1), got %v", c.ObjectnessThreshold)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold >= 1 {
		return errors.Errorf("confidence threshold must be in [0,1), got %v", c.ConfidenceThreshold)
	}
	if c.NMS.Enabled && (c.NMS.IoUThreshold <= 0 || c.NMS.IoUThreshold > 1) {
		return errors.Errorf("nms iou threshold must be in (0,1], got %v", c.NMS.IoUThreshold)
	}
	return nil
}

// Apply copies the thresholds into a decode configuration.
func (c Config) Apply(decode postprocess.DecodeConfig) postprocess.DecodeConfig {
	decode.ObjectnessThreshold = c.ObjectnessThreshold
	decode.ConfidenceThreshold = c.ConfidenceThreshold
	return decode
}
