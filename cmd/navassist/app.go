package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/navassist/camera"
	"github.com/nvr-ai/navassist/config"
	"github.com/nvr-ai/navassist/controller"
	"github.com/nvr-ai/navassist/inference"
	"github.com/nvr-ai/navassist/inference/detectors"
	"github.com/nvr-ai/navassist/logging"
	"github.com/nvr-ai/navassist/models"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/narration"
	"github.com/nvr-ai/navassist/profiler"
	"github.com/nvr-ai/navassist/web"
)

// pipeline holds the camera and detector once setup has opened them.
type pipeline struct {
	mu       sync.RWMutex
	source   camera.Source
	detector *detectors.Detector
}

func (p *pipeline) Read(ctx context.Context) (image.Image, error) {
	p.mu.RLock()
	source := p.source
	p.mu.RUnlock()
	if source == nil {
		return nil, camera.ErrFrameUnavailable
	}
	return source.Read(ctx)
}

func (p *pipeline) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	p.mu.RLock()
	detector := p.detector
	p.mu.RUnlock()
	if detector == nil {
		return nil, inference.ErrSessionClosed
	}
	return detector.Detect(ctx, img)
}

// steps returns the setup steps that load the model and open the camera.
func (p *pipeline) steps(cfg config.Config, prof *profiler.Profiler) []controller.SetupStep {
	return []controller.SetupStep{
		{Name: "model", Run: func(context.Context) error {
			args, err := cfg.ModelArgs()
			if err != nil {
				return err
			}
			m, err := models.NewModel(args)
			if err != nil {
				return err
			}
			engine, err := inference.NewONNXEngine(m, cfg.Provider)
			if err != nil {
				return err
			}
			detector, err := detectors.NewDetector(detectors.NewDetectorArgs{
				Engine:   engine,
				Model:    m,
				NMS:      cfg.Detector.NMS,
				Profiler: prof,
			})
			if err != nil {
				engine.Close()
				return err
			}
			p.mu.Lock()
			p.detector = detector
			p.mu.Unlock()
			return nil
		}},
		{Name: "camera", Run: func(context.Context) error {
			source, err := camera.Open(cfg.Camera)
			if err != nil {
				return err
			}
			p.mu.Lock()
			p.source = source
			p.mu.Unlock()
			return nil
		}},
	}
}

func (p *pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.source != nil {
		errs = append(errs, p.source.Close())
		p.source = nil
	}
	if p.detector != nil {
		errs = append(errs, p.detector.Close())
		p.detector = nil
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// printNarrator writes each phrase as a line to w.
func printNarrator(w io.Writer) narration.Narrator {
	var mu sync.Mutex
	return narration.Func(func(text string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, text)
	})
}

// run wires the sinks, the pipeline and the driver, and blocks until ctx is done.
func run(ctx context.Context, cfg config.Config, autostart bool, logger logging.Logger) error {
	lang, err := narration.ParseLanguage(cfg.Narration.Language)
	if err != nil {
		return err
	}
	phrases, err := narration.Phrases(lang)
	if err != nil {
		return err
	}
	prof := profiler.New(profiler.Options{})

	presenter := controller.NewMultiPresenter(controller.LogPresenter{
		Logger:  logger.Named("presenter"),
		Phrases: phrases,
	})
	narrator := narration.NewMulti(narration.LogNarrator{Logger: logger.Named("narration")})

	if cfg.Narration.Stdout {
		narrator.Add(printNarrator(os.Stdout))
	}
	if cfg.Narration.Command != "" {
		speech, err := narration.NewCommandNarrator(narration.CommandNarratorArgs{
			Command: cfg.Narration.Command,
			Voice:   cfg.Narration.Voice,
			Rate:    cfg.Narration.Rate,
			Logger:  logger.Named("speech"),
		})
		if err != nil {
			return err
		}
		defer speech.Close()
		narrator.Add(speech)
	}

	g, gctx := errgroup.WithContext(ctx)

	var server *web.Server
	if cfg.Web.Enabled {
		server = web.NewServer(web.NewServerArgs{
			Context:  gctx,
			Config:   cfg.Web,
			Phrases:  phrases,
			Rate:     cfg.Narration.Rate,
			Logger:   logger.Named("web"),
			Profiler: prof,
		})
		presenter.Add(server)
		narrator.Add(server)
	}

	p := &pipeline{}
	defer p.Close()

	driver, err := controller.NewDriver(controller.NewDriverArgs{
		Source:    p,
		Detector:  p,
		Presenter: presenter,
		Narrator:  narrator,
		Phrases:   phrases,
		Config:    cfg.Loop,
		Logger:    logger.Named("driver"),
		Profiler:  prof,
	})
	if err != nil {
		return err
	}

	if server != nil {
		server.Attach(driver)
		g.Go(func() error { return server.Serve(gctx) })
	}
	if cfg.Log.MetricsInterval > 0 {
		g.Go(func() error {
			prof.Report(gctx, logger.Named("profiler"), cfg.Log.MetricsInterval)
			return nil
		})
	}

	g.Go(func() error {
		if err := driver.Init(gctx, p.steps(cfg, prof)...); err != nil {
			if server == nil {
				return errors.Wrap(err, "setup failed")
			}
			// The page shows the error; keep serving it.
			<-gctx.Done()
			return nil
		}
		if autostart {
			if err := driver.Start(gctx); err != nil {
				return err
			}
		}
		<-gctx.Done()
		driver.Stop()
		driver.Wait()
		return nil
	})

	return g.Wait()
}
