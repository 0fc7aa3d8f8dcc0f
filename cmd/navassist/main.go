// navassist narrates obstacles seen by a camera for visually impaired users.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/navassist/config"
	"github.com/nvr-ai/navassist/inference/providers"
	"github.com/nvr-ai/navassist/logging"
)

// overrides are the command line flags that replace configuration values.
type overrides struct {
	model     string
	image     string
	dir       string
	video     string
	device    int
	language  string
	listen    string
	provider  string
	logLevel  string
	noWeb     bool
	print     bool
	autostart bool
}

func parseFlags(args []string) (string, overrides, error) {
	fs := flag.NewFlagSet("navassist", flag.ContinueOnError)

	var o overrides
	configPath := fs.String("config", "", "Path to a YAML configuration file")
	fs.StringVar(&o.model, "model", "", "Path to the YOLOv8 ONNX model")
	fs.StringVar(&o.image, "image", "", "Analyse a still image instead of the camera")
	fs.StringVar(&o.dir, "dir", "", "Replay a directory of recorded frames")
	fs.StringVar(&o.video, "video", "", "Analyse a video file instead of the camera")
	fs.IntVar(&o.device, "device", -1, "Capture device id")
	fs.StringVar(&o.language, "lang", "", "Phrase language: ru or en")
	fs.StringVar(&o.listen, "listen", "", "Web listen address, e.g. :8080")
	fs.StringVar(&o.provider, "provider", "", "Execution provider: cpu, coreml, openvino, cuda")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&o.print, "print", false, "Print spoken phrases to stdout")
	fs.BoolVar(&o.noWeb, "no-web", false, "Disable the web page")
	fs.BoolVar(&o.autostart, "autostart", false, "Start navigation as soon as setup succeeds")

	if err := fs.Parse(args); err != nil {
		return "", overrides{}, err
	}
	return *configPath, o, nil
}

// apply copies the flags that were set into cfg.
func (o overrides) apply(cfg *config.Config) error {
	if o.model != "" {
		cfg.Model.Path = o.model
	}
	if o.image != "" {
		cfg.Camera.Image = o.image
	}
	if o.dir != "" {
		cfg.Camera.Dir = o.dir
	}
	if o.video != "" {
		cfg.Camera.File = o.video
	}
	if o.device >= 0 {
		cfg.Camera.Device = o.device
	}
	if o.language != "" {
		cfg.Narration.Language = o.language
	}
	if o.listen != "" {
		cfg.Web.Listen = o.listen
	}
	if o.provider != "" {
		backend, err := providers.ParseBackend(o.provider)
		if err != nil {
			return err
		}
		cfg.Provider.Backend = backend
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.noWeb {
		cfg.Web.Enabled = false
	}
	if o.print {
		cfg.Narration.Stdout = true
	}
	return cfg.Validate()
}

func main() {
	configPath, o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := o.apply(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("navassist", cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Logger error: %v\n", err)
		os.Exit(1)
	}
	logging.ReplaceGlobal(logger)
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, o.autostart || !cfg.Web.Enabled, logger); err != nil {
		logger.Errorw("navassist failed", "error", err)
		cancel()
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}
