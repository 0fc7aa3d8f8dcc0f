// Package inference - Inference sessions.
package inference

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/navassist/inference/providers"
	"github.com/nvr-ai/navassist/models/model"
)

var envMu sync.Mutex

// Session represents a model session from the onnxruntime with preallocated
// input and output tensors.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// initEnvironment loads the ONNX Runtime shared library once per process.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

func toORTShape(dims []int) ort.Shape {
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}
	return ort.NewShape(shape...)
}

// NewSession creates a new ONNX Runtime session for a model.
//
// Order of operations:
//  1. Environment setup: loads the native library once per process.
//  2. Tensor allocation: fixed-shape buffers for the model input and output.
//  3. Session options: threading and the execution provider.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - m: The model whose shapes and node names are used.
//   - cfg: The execution provider configuration.
//
// Returns:
//   - *Session: The session. Close must be called to release native resources.
//   - error: An error if the session creation fails.
func NewSession(m model.Model, cfg providers.Config) (*Session, error) {
	if err := initEnvironment(cfg.LibraryPath()); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](toORTShape(m.InputShape()))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	output, err := ort.NewEmptyTensor[float32](toORTShape(m.OutputShape()))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := providers.SessionOptions(cfg)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	opts := m.Options()
	session, err := ort.NewAdvancedSession(
		opts.Path,
		[]string{opts.Input},
		[]string{opts.Output},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	return &Session{session: session, input: input, output: output}, nil
}

// InputData returns the input tensor buffer.
func (s *Session) InputData() []float32 {
	return s.input.GetData()
}

// OutputData returns the output tensor buffer.
func (s *Session) OutputData() []float32 {
	return s.output.GetData()
}

// Run executes the model on the current input buffer.
func (s *Session) Run() error {
	return s.session.Run()
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	var err error
	if s.session != nil {
		err = s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	return errors.Wrap(err, "error destroying ORT session")
}
