// Package config loads the navassist configuration from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/navassist/camera"
	"github.com/nvr-ai/navassist/controller"
	"github.com/nvr-ai/navassist/inference/detectors"
	"github.com/nvr-ai/navassist/inference/providers"
	"github.com/nvr-ai/navassist/logging"
	"github.com/nvr-ai/navassist/models"
	"github.com/nvr-ai/navassist/models/model"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/models/yolov8"
	"github.com/nvr-ai/navassist/narration"
	"github.com/nvr-ai/navassist/web"
)

// DefaultModelPath is where the YOLOv8n export is looked up.
const DefaultModelPath = "models/yolov8n.onnx"

// Model describes the model file and the labels that are narrated.
type Model struct {
	model.Config `yaml:",inline"`
	// Labels is the full class list of a model that does not emit the 80 COCO
	// classes, in output order. Its length must equal class_count. Empty means COCO.
	Labels []string `yaml:"labels"`
	// Recognized lists the class labels reported to the user. Other classes are dropped.
	// Names are matched to their model index, so "cat" (COCO index 15) is reported
	// when listed even though it is not among the first ten classes. Empty reports
	// every class.
	Recognized []string `yaml:"recognized"`
}

// Narration configures speech.
type Narration struct {
	// Language of the phrasebook: ru or en.
	Language string `yaml:"language"`
	// Rate is the speech rate; 1.0 is normal.
	Rate float64 `yaml:"rate"`
	// Command is a local speech synthesizer. Empty disables local speech.
	Command string `yaml:"command"`
	// Voice is passed to Command.
	Voice string `yaml:"voice"`
	// Stdout prints every spoken phrase on its own line.
	Stdout bool `yaml:"stdout"`
}

// Log configures logging.
type Log struct {
	Level  string         `yaml:"level"`
	Format logging.Format `yaml:"format"`
	// MetricsInterval logs operation timings periodically. Zero disables it.
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// Config is the complete configuration.
type Config struct {
	Model     Model             `yaml:"model"`
	Detector  detectors.Config  `yaml:"detector"`
	Provider  providers.Config  `yaml:"provider"`
	Camera    camera.Config     `yaml:"camera"`
	Loop      controller.Config `yaml:"loop"`
	Narration Narration         `yaml:"narration"`
	Web       web.Config        `yaml:"web"`
	Log       Log               `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model: Model{
			Config:     yolov8.DefaultConfig(DefaultModelPath),
			Recognized: append([]string(nil), models.NavigationClasses...),
		},
		Detector: detectors.DefaultConfig(),
		Provider: providers.DefaultConfig(),
		Camera:   camera.Config{},
		Loop:     controller.DefaultConfig(),
		Narration: Narration{
			Language: string(narration.LanguageRussian),
			Rate:     web.DefaultSpeechRate,
		},
		Web: web.DefaultConfig(),
		Log: Log{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return errors.Wrap(err, "model")
	}
	if _, err := c.Labels(); err != nil {
		return errors.Wrap(err, "model")
	}
	if err := c.Detector.Validate(); err != nil {
		return errors.Wrap(err, "detector")
	}
	if err := c.Provider.Validate(); err != nil {
		return errors.Wrap(err, "provider")
	}
	if err := c.Camera.Validate(); err != nil {
		return errors.Wrap(err, "camera")
	}
	if err := c.Loop.Validate(); err != nil {
		return errors.Wrap(err, "loop")
	}
	if _, err := narration.ParseLanguage(c.Narration.Language); err != nil {
		return errors.Wrap(err, "narration")
	}
	if c.Narration.Rate <= 0 {
		return errors.Errorf("narration: rate must be positive, got %v", c.Narration.Rate)
	}
	if err := c.Web.Validate(); err != nil {
		return errors.Wrap(err, "web")
	}
	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return errors.Errorf("log: unknown format %q", c.Log.Format)
	}
	if c.Log.MetricsInterval < 0 {
		return errors.Errorf("log: metrics interval must not be negative, got %v", c.Log.MetricsInterval)
	}
	return nil
}

// ClassSet returns the model's classes: the custom labels when given, COCO otherwise.
func (c Config) ClassSet() (*models.OutputClassSet, error) {
	set := models.YOLOClasses
	if len(c.Model.Labels) > 0 {
		set = models.NewOutputClassSet(models.FamilyCustom, c.Model.Labels...)
	}
	if c.Model.ClassCount != set.Len() {
		return nil, errors.Errorf("class count %d does not match the %d %s labels",
			c.Model.ClassCount, set.Len(), set.Style)
	}
	return set, nil
}

// Labels returns the positional label table of the model's classes.
func (c Config) Labels() ([]string, error) {
	set, err := c.ClassSet()
	if err != nil {
		return nil, err
	}
	return set.Recognized(c.Model.Recognized)
}

// ModelArgs returns the arguments for creating the configured model.
func (c Config) ModelArgs() (model.NewModelArgs, error) {
	labels, err := c.Labels()
	if err != nil {
		return model.NewModelArgs{}, err
	}
	decode := c.Detector.Apply(postprocess.DefaultDecodeConfig(labels))
	return model.NewModelArgs{Config: c.Model.Config, Decode: decode}, nil
}
