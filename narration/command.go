package narration

import (
	"context"
	"os/exec"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/nvr-ai/navassist/logging"
)

const (
	// DefaultCommand is the speech synthesizer run by CommandNarrator.
	DefaultCommand = "espeak-ng"
	// baseWordsPerMinute is the espeak speed that corresponds to rate 1.0.
	baseWordsPerMinute = 175
)

// runFunc runs a command until it exits or ctx is canceled.
type runFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// CommandNarrator speaks through a local text-to-speech program. A new phrase
// interrupts the one being spoken.
type CommandNarrator struct {
	command string
	voice   string
	rate    float64
	logger  logging.Logger
	run     runFunc

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// CommandNarratorArgs is the arguments for creating a CommandNarrator.
type CommandNarratorArgs struct {
	// Command is the program to run (default: espeak-ng).
	Command string
	// Voice is passed as -v, e.g. "ru" or "en-us".
	Voice string
	// Rate scales the default speed; 1.0 is normal.
	Rate   float64
	Logger logging.Logger
}

// NewCommandNarrator creates a CommandNarrator. The program must be on PATH.
func NewCommandNarrator(args CommandNarratorArgs) (*CommandNarrator, error) {
	if args.Command == "" {
		args.Command = DefaultCommand
	}
	if args.Rate <= 0 {
		args.Rate = 1
	}
	if args.Logger == nil {
		args.Logger = logging.Global()
	}
	if _, err := exec.LookPath(args.Command); err != nil {
		return nil, errors.Wrapf(err, "speech command %q not found", args.Command)
	}
	return &CommandNarrator{
		command: args.Command,
		voice:   args.Voice,
		rate:    args.Rate,
		logger:  args.Logger,
		run:     runCommand,
	}, nil
}

// Args returns the command line arguments used to speak text.
func (n *CommandNarrator) Args(text string) []string {
	var args []string
	if n.voice != "" {
		args = append(args, "-v", n.voice)
	}
	wpm := int(baseWordsPerMinute * n.rate)
	args = append(args, "-s", strconv.Itoa(wpm), text)
	return args
}

// Speak starts speaking text and returns immediately.
func (n *CommandNarrator) Speak(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	if n.cancel != nil {
		n.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	args := n.Args(text)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.run(ctx, n.command, args...); err != nil && ctx.Err() == nil {
			n.logger.Warnw("speech command failed", "command", n.command, "error", err)
		}
	}()
}

// Close interrupts the current phrase and waits for the program to exit.
func (n *CommandNarrator) Close() error {
	n.mu.Lock()
	n.closed = true
	if n.cancel != nil {
		n.cancel()
	}
	n.mu.Unlock()

	n.wg.Wait()
	return nil
}
