package narration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nvr-ai/navassist/logging"
)

type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) Speak(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMulti(a, nil)
	m.Add(b)

	m.Speak("one")
	m.Speak("two")

	assert.Equal(t, []string{"one", "two"}, a.texts)
	assert.Equal(t, []string{"one", "two"}, b.texts)
}

func TestFunc(t *testing.T) {
	var got string
	Func(func(text string) { got = text }).Speak("hello")
	assert.Equal(t, "hello", got)
}

func TestLogNarrator(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := LogNarrator{Logger: zap.New(core).Sugar()}

	n.Speak("Навигация активирована")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "narration", entry.Message)
	assert.Equal(t, "Навигация активирована", entry.ContextMap()["text"])
}

type blockingRun struct {
	mu       sync.Mutex
	started  []string
	canceled []string
	startc   chan struct{}
}

func (b *blockingRun) run(ctx context.Context, _ string, args ...string) error {
	text := args[len(args)-1]
	b.mu.Lock()
	b.started = append(b.started, text)
	b.mu.Unlock()
	b.startc <- struct{}{}

	<-ctx.Done()
	b.mu.Lock()
	b.canceled = append(b.canceled, text)
	b.mu.Unlock()
	return ctx.Err()
}

func newTestCommandNarrator(t *testing.T, run runFunc) *CommandNarrator {
	return &CommandNarrator{
		command: DefaultCommand,
		voice:   "ru",
		rate:    0.9,
		logger:  logging.NewTestLogger(t),
		run:     run,
	}
}

func TestCommandNarratorArgs(t *testing.T) {
	n := newTestCommandNarrator(t, nil)
	assert.Equal(t, []string{"-v", "ru", "-s", "157", "привет"}, n.Args("привет"))

	n.voice = ""
	n.rate = 1
	assert.Equal(t, []string{"-s", "175", "hi"}, n.Args("hi"))
}

func TestCommandNarratorInterrupts(t *testing.T) {
	b := &blockingRun{startc: make(chan struct{}, 2)}
	n := newTestCommandNarrator(t, b.run)

	n.Speak("first")
	<-b.startc
	n.Speak("second")
	<-b.startc

	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.canceled) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, n.Close())
	assert.Equal(t, []string{"first", "second"}, b.started)
	assert.ElementsMatch(t, []string{"first", "second"}, b.canceled)

	n.Speak("after close")
	assert.Len(t, b.started, 2)
}

func TestNewCommandNarratorMissingProgram(t *testing.T) {
	_, err := NewCommandNarrator(CommandNarratorArgs{Command: "definitely-not-a-tts-program"})
	assert.Error(t, err)
}
