// Package narration speaks navigation events to the user.
package narration

import (
	"sync"

	"github.com/nvr-ai/navassist/logging"
)

// Narrator speaks a phrase. Speak never blocks on the speech itself.
type Narrator interface {
	Speak(text string)
}

// Func adapts a function to the Narrator interface.
type Func func(text string)

// Speak calls f(text).
func (f Func) Speak(text string) { f(text) }

// LogNarrator writes phrases to a logger.
type LogNarrator struct {
	Logger logging.Logger
}

// Speak logs the phrase.
func (n LogNarrator) Speak(text string) {
	n.Logger.Infow("narration", "text", text)
}

// Multi fans a phrase out to several narrators.
type Multi struct {
	mu        sync.RWMutex
	narrators []Narrator
}

// NewMulti creates a fan-out narrator. Nil entries are skipped.
func NewMulti(narrators ...Narrator) *Multi {
	m := &Multi{}
	for _, n := range narrators {
		m.Add(n)
	}
	return m
}

// Add registers another narrator.
func (m *Multi) Add(n Narrator) {
	if n == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.narrators = append(m.narrators, n)
}

// Speak forwards text to every narrator in registration order.
func (m *Multi) Speak(text string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.narrators {
		n.Speak(text)
	}
}
