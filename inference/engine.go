// Package inference - Inference engine interface and implementations.
package inference

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/inference/providers"
	"github.com/nvr-ai/navassist/models/model"
)

// ErrSessionClosed is returned by Infer after Close.
var ErrSessionClosed = errors.New("inference session closed")

// Engine turns a frame into the raw output tensor of the model.
type Engine interface {
	Infer(ctx context.Context, img image.Image) ([]float32, error)
	Close() error
}

// runner is the part of a session the engine drives.
type runner interface {
	InputData() []float32
	OutputData() []float32
	Run() error
	Close() error
}

// ONNXEngine implements Engine on top of an ONNX Runtime session.
//
// Runs are serialized: a session owns one input and one output buffer. When the
// caller's context ends while the native run is still in flight, Infer returns
// immediately and the next caller waits until that run has finished.
type ONNXEngine struct {
	sem    chan struct{}
	runner runner
	size   int
}

// NewONNXEngine creates an engine for a model.
//
// Arguments:
//   - m: The model.
//   - cfg: The execution provider configuration.
//
// Returns:
//   - *ONNXEngine: The engine.
//   - error: An error if the session cannot be created.
func NewONNXEngine(m model.Model, cfg providers.Config) (*ONNXEngine, error) {
	session, err := NewSession(m, cfg)
	if err != nil {
		return nil, err
	}
	return newEngine(session, m.Options().InputSize), nil
}

func newEngine(r runner, size int) *ONNXEngine {
	return &ONNXEngine{sem: make(chan struct{}, 1), runner: r, size: size}
}

type inferResult struct {
	output []float32
	err    error
}

// Infer prepares the frame, runs the model and returns a copy of the output buffer.
//
// Arguments:
//   - ctx: Bounds how long the caller waits for the session and the run.
//   - img: The frame.
//
// Returns:
//   - []float32: The raw output tensor.
//   - error: An error if preparation or the run fails, or ctx ends first.
func (e *ONNXEngine) Infer(ctx context.Context, img image.Image) ([]float32, error) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for inference session")
	}

	if e.runner == nil {
		<-e.sem
		return nil, ErrSessionClosed
	}
	if err := PrepareInput(img, e.runner.InputData(), e.size); err != nil {
		<-e.sem
		return nil, errors.Wrap(err, "failed to prepare input")
	}

	done := make(chan inferResult, 1)
	go func(r runner) {
		defer func() { <-e.sem }()
		if err := r.Run(); err != nil {
			done <- inferResult{err: errors.Wrap(err, "failed to run inference")}
			return
		}
		out := make([]float32, len(r.OutputData()))
		copy(out, r.OutputData())
		done <- inferResult{output: out}
	}(e.runner)

	select {
	case res := <-done:
		return res.output, res.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "inference abandoned")
	}
}

// Close waits for any in-flight run and releases the session.
func (e *ONNXEngine) Close() error {
	e.sem <- struct{}{}
	defer func() { <-e.sem }()

	if e.runner == nil {
		return nil
	}
	err := e.runner.Close()
	e.runner = nil
	return err
}
