package controller

import (
	"sync"

	"github.com/nvr-ai/navassist/logging"
	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/narration"
)

// LogPresenter renders status and objects as log lines.
type LogPresenter struct {
	Logger  logging.Logger
	Phrases narration.Phrasebook
}

// ShowStatus logs the status text.
func (p LogPresenter) ShowStatus(text string) {
	p.Logger.Infow("status", "text", text)
}

// ShowObjects logs the localized object list.
func (p LogPresenter) ShowObjects(summary postprocess.Summary) {
	if len(summary) == 0 {
		p.Logger.Infow("objects", "list", p.Phrases.NoObjects)
		return
	}
	items := make([]string, 0, len(summary))
	for _, c := range summary {
		items = append(items, p.Phrases.Class(c.Class)+": "+p.Phrases.Pieces(c.Count))
	}
	p.Logger.Infow("objects", "list", items)
}

// MultiPresenter fans out to several presenters.
type MultiPresenter struct {
	mu         sync.RWMutex
	presenters []Presenter
}

// NewMultiPresenter creates a fan-out presenter. Nil entries are skipped.
func NewMultiPresenter(presenters ...Presenter) *MultiPresenter {
	m := &MultiPresenter{}
	for _, p := range presenters {
		m.Add(p)
	}
	return m
}

// Add registers another presenter.
func (m *MultiPresenter) Add(p Presenter) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presenters = append(m.presenters, p)
}

// ShowStatus forwards to every presenter.
func (m *MultiPresenter) ShowStatus(text string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.presenters {
		p.ShowStatus(text)
	}
}

// ShowObjects forwards to every presenter.
func (m *MultiPresenter) ShowObjects(summary postprocess.Summary) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.presenters {
		p.ShowObjects(summary)
	}
}
