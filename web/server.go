// Package web serves the control page and streams navigation events to the browser.
package web

import (
	"context"
	_ "embed"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/logging"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/narration"
	"github.com/nvr-ai/navassist/profiler"
)

//go:embed static/index.html
var indexHTML []byte

// Event types sent on /ws/events.
const (
	EventStatus  = "status"
	EventObjects = "objects"
	EventSpeech  = "speech"
)

// DefaultSpeechRate is the Web Speech API rate used by the browser.
const DefaultSpeechRate = 0.9

// Controls starts and stops navigation.
type Controls interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
}

// Config configures the web server.
type Config struct {
	// Enabled turns the server on.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Listen is the listen address, e.g. ":8080".
	Listen string `json:"listen" yaml:"listen"`
	// Speech forwards narration to the browser's speech synthesizer.
	Speech bool `json:"speech" yaml:"speech"`
}

// DefaultConfig listens on :8080 with browser speech on.
func DefaultConfig() Config {
	return Config{Enabled: true, Listen: ":8080", Speech: true}
}

// Validate checks the listen address.
func (c Config) Validate() error {
	if c.Enabled && c.Listen == "" {
		return errors.New("web listen address is required")
	}
	return nil
}

// ObjectItem is one row of the object list.
type ObjectItem struct {
	Class string `json:"class"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Text  string `json:"text"`
}

// Event is a message pushed to the browser.
type Event struct {
	Type    string       `json:"type"`
	Text    string       `json:"text,omitempty"`
	Lang    string       `json:"lang,omitempty"`
	Rate    float64      `json:"rate,omitempty"`
	Running *bool        `json:"running,omitempty"`
	Objects []ObjectItem `json:"objects,omitempty"`
}

// State is the current page state served on /api/status.
type State struct {
	Status  string       `json:"status"`
	Running bool         `json:"running"`
	Objects []ObjectItem `json:"objects"`
	Empty   string       `json:"empty"`
	Lang    string       `json:"lang"`
	Clients int          `json:"clients"`
}

// Server is the web presentation and narration sink.
type Server struct {
	app      *fiber.App
	hub      *Hub
	config   Config
	phrases  narration.Phrasebook
	rate     float64
	logger   logging.Logger
	profiler *profiler.Profiler

	ctx context.Context

	mu       sync.RWMutex
	status   string
	objects  []ObjectItem
	controls Controls
}

// NewServerArgs is the arguments for creating a new Server.
type NewServerArgs struct {
	// Context bounds the navigation loops started from the page.
	Context context.Context
	Config  Config
	Phrases narration.Phrasebook
	// Rate is the browser speech rate (default: 0.9).
	Rate   float64
	Logger logging.Logger
	// Profiler is optional and served on /api/metrics.
	Profiler *profiler.Profiler
}

// NewServer creates a new web server.
//
// Arguments:
//   - args: The server configuration and collaborators.
//
// Returns:
//   - *Server: The server. Attach the navigation controls before serving.
func NewServer(args NewServerArgs) *Server {
	if args.Context == nil {
		args.Context = context.Background()
	}
	if args.Rate <= 0 {
		args.Rate = DefaultSpeechRate
	}
	if args.Logger == nil {
		args.Logger = logging.Global()
	}

	s := &Server{
		hub:      NewHub(args.Logger),
		config:   args.Config,
		phrases:  args.Phrases,
		rate:     args.Rate,
		logger:   args.Logger,
		profiler: args.Profiler,
		ctx:      args.Context,
		objects:  []ObjectItem{},
	}

	app := fiber.New(fiber.Config{
		AppName:               "navassist",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/objects", s.handleObjects)
	api.Get("/metrics", s.handleMetrics)
	api.Post("/start", s.handleStart)
	api.Post("/stop", s.handleStop)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Attach sets the navigation controls used by the start and stop endpoints.
func (s *Server) Attach(controls Controls) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = controls
}

// Serve runs the hub and listens until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	go s.hub.Run(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Infow("web server listening", "address", s.config.Listen)
		errc <- s.app.Listen(s.config.Listen)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "web server failed")
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return errors.Wrap(err, "web server shutdown failed")
		}
		return nil
	}
}

// ShowStatus updates the status line.
func (s *Server) ShowStatus(text string) {
	s.mu.Lock()
	s.status = text
	running := s.running()
	s.mu.Unlock()

	s.publish(Event{Type: EventStatus, Text: text, Running: &running})
}

// ShowObjects updates the object list.
func (s *Server) ShowObjects(summary postprocess.Summary) {
	items := s.items(summary)

	s.mu.Lock()
	s.objects = items
	s.mu.Unlock()

	event := Event{Type: EventObjects, Objects: items}
	if len(items) == 0 {
		event.Text = s.phrases.NoObjects
	}
	s.publish(event)
}

// Speak asks the browser to speak text.
func (s *Server) Speak(text string) {
	if !s.config.Speech {
		return
	}
	s.publish(Event{Type: EventSpeech, Text: text, Lang: s.phrases.Tag, Rate: s.rate})
}

// State returns the current page state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Status:  s.status,
		Running: s.running(),
		Objects: s.objects,
		Empty:   s.phrases.NoObjects,
		Lang:    s.phrases.Tag,
		Clients: s.hub.ClientCount(),
	}
}

// running must be called with s.mu held.
func (s *Server) running() bool {
	return s.controls != nil && s.controls.Running()
}

func (s *Server) items(summary postprocess.Summary) []ObjectItem {
	items := make([]ObjectItem, 0, len(summary))
	for _, c := range summary {
		items = append(items, ObjectItem{
			Class: c.Class,
			Label: s.phrases.Class(c.Class),
			Count: c.Count,
			Text:  s.phrases.Pieces(c.Count),
		})
	}
	return items
}

func (s *Server) publish(event Event) {
	if err := s.hub.BroadcastJSON(event); err != nil {
		s.logger.Warnw("failed to publish event", "type", event.Type, "error", err)
	}
}
