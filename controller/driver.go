package controller

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/logging"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/narration"
	"github.com/nvr-ai/navassist/profiler"
)

// Driver runs detection on a fixed cadence while navigation is active.
//
// The loop never overlaps ticks: the next tick is scheduled only after the
// previous one and the interval have both completed. Start and Stop may be
// called from any goroutine.
type Driver struct {
	source    Source
	detector  Detector
	presenter Presenter
	narrator  narration.Narrator
	phrases   narration.Phrasebook
	config    Config
	clock     clock.Clock
	logger    logging.Logger
	profiler  *profiler.Profiler

	mu          sync.Mutex
	initialized bool
	running     bool
	stop        chan struct{}
	done        chan struct{}
	frames      int
}

// NewDriverArgs is the arguments for creating a new Driver.
type NewDriverArgs struct {
	Source    Source
	Detector  Detector
	Presenter Presenter
	Narrator  narration.Narrator
	Phrases   narration.Phrasebook
	Config    Config
	// Clock defaults to the wall clock.
	Clock  clock.Clock
	Logger logging.Logger
	// Profiler is optional.
	Profiler *profiler.Profiler
}

// NewDriver creates a new Driver.
//
// Arguments:
//   - args: The collaborators and loop configuration.
//
// Returns:
//   - *Driver: The driver, stopped and not initialized.
//   - error: An error if a collaborator is missing or the configuration is invalid.
func NewDriver(args NewDriverArgs) (*Driver, error) {
	switch {
	case args.Source == nil:
		return nil, errors.New("driver requires a frame source")
	case args.Detector == nil:
		return nil, errors.New("driver requires a detector")
	case args.Presenter == nil:
		return nil, errors.New("driver requires a presenter")
	case args.Narrator == nil:
		return nil, errors.New("driver requires a narrator")
	}
	if err := args.Config.Validate(); err != nil {
		return nil, err
	}
	if args.Clock == nil {
		args.Clock = clock.New()
	}
	if args.Logger == nil {
		args.Logger = logging.Global()
	}
	if args.Phrases.Language == "" {
		phrases, err := narration.Phrases(narration.LanguageRussian)
		if err != nil {
			return nil, err
		}
		args.Phrases = phrases
	}

	return &Driver{
		source:    args.Source,
		detector:  args.Detector,
		presenter: args.Presenter,
		narrator:  args.Narrator,
		phrases:   args.Phrases,
		config:    args.Config,
		clock:     args.Clock,
		logger:    args.Logger,
		profiler:  args.Profiler,
	}, nil
}

// Init runs the setup steps in order. The first failure is shown as an error
// status and returned; Start refuses to run until Init has succeeded.
func (d *Driver) Init(ctx context.Context, steps ...SetupStep) error {
	d.presenter.ShowStatus(d.phrases.Loading)

	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			err = errors.Wrap(err, step.Name)
			d.logger.Errorw("setup failed", "step", step.Name, "error", err)
			d.presenter.ShowStatus(d.phrases.Error(err))
			return err
		}
		d.logger.Debugw("setup step done", "step", step.Name)
	}

	d.mu.Lock()
	d.initialized = true
	d.mu.Unlock()

	d.presenter.ShowStatus(d.phrases.Ready)
	return nil
}

// Start activates navigation and launches the loop. The first tick runs
// immediately. The loop ends on Stop or when ctx is done.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	prev := d.done
	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop, d.done = stop, done
	d.mu.Unlock()

	d.presenter.ShowStatus(d.phrases.Scanning)
	d.narrator.Speak(d.phrases.Activated)
	d.logger.Infow("navigation started", "interval", d.config.Interval)

	go d.loop(ctx, prev, stop, done)
	return nil
}

// Stop deactivates navigation. A tick in flight still completes, but no further
// tick is scheduled; a following Start runs its first tick only after it.
// Stopping a stopped driver does nothing.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stop)
	d.mu.Unlock()

	d.presenter.ShowStatus(d.phrases.Halted)
	d.narrator.Speak(d.phrases.Stopped)
	d.logger.Infow("navigation stopped")
}

// Running reports whether navigation is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Wait blocks until the most recently started loop has exited.
func (d *Driver) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()

	if done != nil {
		<-done
	}
}

// loop waits for the previous loop, if any, to finish its last tick so a
// restart never runs two ticks at once.
func (d *Driver) loop(ctx context.Context, prev, stop, done chan struct{}) {
	defer close(done)

	if prev != nil {
		<-prev
	}

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			d.expire(stop)
			return
		default:
		}

		d.tick(ctx)

		timer := d.clock.Timer(d.config.Interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			d.expire(stop)
			return
		case <-timer.C:
		}
	}
}

// expire clears the running flag when the loop's context ends without Stop.
func (d *Driver) expire(stop chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running && d.stop == stop {
		d.running = false
		close(stop)
	}
}

func (d *Driver) tick(ctx context.Context) {
	d.mu.Lock()
	d.frames++
	id := d.frames
	d.mu.Unlock()

	finish := d.profiler.StartOperation(profiler.OperationTick)
	err := d.process(ctx, id)
	finish(err)
	if err != nil {
		d.logger.Warnw("tick failed", "frame", id, "error", err)
	}
}

func (d *Driver) process(ctx context.Context, id int) error {
	img, err := d.source.Read(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read frame")
	}
	frame := Frame{ID: id, Image: img, Timestamp: d.clock.Now()}

	detectCtx := ctx
	if d.config.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		detectCtx, cancel = context.WithTimeout(ctx, d.config.InferenceTimeout)
		defer cancel()
	}

	detections, err := d.detector.Detect(detectCtx, frame.Image)
	if err != nil {
		return errors.Wrap(err, "failed to detect objects")
	}

	d.report(frame, detections)
	return nil
}

// report forwards one tick's detections to the sinks.
func (d *Driver) report(frame Frame, detections []postprocess.Detection) {
	summary := postprocess.Summarize(detections)
	d.presenter.ShowObjects(summary)

	d.logger.Debugw("frame processed", "frame", frame.ID, "detections", len(detections), "summary", summary.Map())
	if len(detections) == 0 {
		return
	}

	text := d.phrases.Detected(len(detections))
	if d.config.NarrateDistance {
		if nearest, ok := postprocess.Nearest(detections); ok {
			text += ". " + d.phrases.Nearest(nearest)
		}
	}
	d.narrator.Speak(text)
	d.presenter.ShowStatus(text)
}
