// Package detectors - Object detection on top of an inference engine.
package detectors

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/inference"
	"github.com/nvr-ai/navassist/models/model"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/profiler"
)

// Detector runs a frame through the engine and decodes the model output.
type Detector struct {
	engine   inference.Engine
	model    model.Model
	nms      postprocess.NMSConfig
	profiler *profiler.Profiler
}

// NewDetectorArgs is the arguments for creating a new Detector.
type NewDetectorArgs struct {
	Engine inference.Engine
	Model  model.Model
	NMS    postprocess.NMSConfig
	// Profiler is optional.
	Profiler *profiler.Profiler
}

// NewDetector creates a new Detector.
//
// Arguments:
//   - args: The engine, model and optional NMS stage.
//
// Returns:
//   - *Detector: The detector.
//   - error: An error if the engine or model is missing.
func NewDetector(args NewDetectorArgs) (*Detector, error) {
	if args.Engine == nil {
		return nil, errors.New("detector requires an inference engine")
	}
	if args.Model == nil {
		return nil, errors.New("detector requires a model")
	}
	return &Detector{
		engine:   args.Engine,
		model:    args.Model,
		nms:      args.NMS,
		profiler: args.Profiler,
	}, nil
}

// Detect runs inference on a frame.
//
// Arguments:
//   - ctx: Bounds the inference run.
//   - img: The frame to detect objects in.
//
// Returns:
//   - []postprocess.Detection: The detections, in anchor order unless NMS is enabled.
//   - error: An error if inference or decoding fails.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	done := d.profiler.StartOperation(profiler.OperationInference)
	output, err := d.engine.Infer(ctx, img)
	done(err)
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	done = d.profiler.StartOperation(profiler.OperationDecode)
	detections, err := d.model.PostProcess(output)
	done(err)
	if err != nil {
		return nil, errors.Wrap(err, "decode failed")
	}

	return postprocess.ApplyGreedyNMS(detections, d.nms), nil
}

// Close releases the engine.
func (d *Detector) Close() error {
	return d.engine.Close()
}
