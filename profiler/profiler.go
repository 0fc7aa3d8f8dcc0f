// Package profiler - Operation timing statistics.
package profiler

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/nvr-ai/navassist/logging"
)

// Operation names recorded by the pipeline.
const (
	OperationTick      = "tick"
	OperationInference = "inference"
	OperationDecode    = "decode"
)

// TimeTracker tracks operation timing statistics over a sliding window.
type TimeTracker struct {
	name      string
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
	failures  int64
}

// OperationStats is a point-in-time view of a TimeTracker.
type OperationStats struct {
	Name     string        `json:"name"`
	Count    int64         `json:"count"`
	Failures int64         `json:"failures"`
	Last     time.Duration `json:"last_ns"`
	Avg      time.Duration `json:"avg_ns"`
	Min      time.Duration `json:"min_ns"`
	Max      time.Duration `json:"max_ns"`
}

// Snapshot is the profiler state served on the metrics endpoint.
type Snapshot struct {
	Uptime     time.Duration    `json:"uptime_ns"`
	Goroutines int              `json:"goroutines"`
	HeapAlloc  uint64           `json:"heap_alloc_bytes"`
	// RSS and CPUPercent are zero when the process cannot be inspected.
	RSS        uint64           `json:"rss_bytes"`
	CPUPercent float64          `json:"cpu_percent"`
	Operations []OperationStats `json:"operations"`
}

// Options configures the profiler.
type Options struct {
	// MaxSamples bounds the averaging window per operation (default: 100).
	MaxSamples int
	// Clock is the time source (default: the wall clock).
	Clock clock.Clock
}

// Profiler records operation timings. It is safe for concurrent use.
type Profiler struct {
	mu         sync.RWMutex
	clock      clock.Clock
	startTime  time.Time
	maxSamples int
	operations map[string]*TimeTracker
	process    *process.Process
}

// New creates a profiler.
//
// Arguments:
//   - opts: Configuration options for the profiler.
//
// Returns:
//   - *Profiler: A configured profiler.
func New(opts Options) *Profiler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 100
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	p := &Profiler{
		clock:      opts.Clock,
		startTime:  opts.Clock.Now(),
		maxSamples: opts.MaxSamples,
		operations: make(map[string]*TimeTracker),
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		p.process = proc
	}
	return p
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func(err error): Call when the operation completes; a non-nil err counts a failure.
func (p *Profiler) StartOperation(name string) func(err error) {
	if p == nil {
		return func(error) {}
	}
	start := p.clock.Now()
	return func(err error) {
		p.Record(name, p.clock.Since(start), err)
	}
}

// Record adds one timing sample for an operation.
func (p *Profiler) Record(name string, duration time.Duration, err error) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		p.operations[name] = tracker
	}

	tracker.count++
	if err != nil {
		tracker.failures++
	}

	tracker.durations = append(tracker.durations, duration)
	tracker.totalTime += duration
	if len(tracker.durations) > p.maxSamples {
		// Remove oldest sample.
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

func (t *TimeTracker) stats() OperationStats {
	s := OperationStats{
		Name:     t.name,
		Count:    t.count,
		Failures: t.failures,
		Min:      t.minTime,
		Max:      t.maxTime,
	}
	if n := len(t.durations); n > 0 {
		s.Last = t.durations[n-1]
		s.Avg = t.totalTime / time.Duration(n)
	}
	return s
}

// Operation returns the statistics of a single operation.
func (p *Profiler) Operation(name string) (OperationStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, ok := p.operations[name]
	if !ok {
		return OperationStats{}, false
	}
	return tracker.stats(), true
}

// Snapshot returns the current statistics, operations sorted by name.
func (p *Profiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	snap := Snapshot{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
	}
	if p.process != nil {
		if info, err := p.process.MemoryInfo(); err == nil {
			snap.RSS = info.RSS
		}
		if percent, err := p.process.CPUPercent(); err == nil {
			snap.CPUPercent = percent
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	ops := make([]OperationStats, 0, len(p.operations))
	for _, tracker := range p.operations {
		ops = append(ops, tracker.stats())
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })

	snap.Uptime = p.clock.Since(p.startTime)
	snap.Operations = ops
	return snap
}

// Report logs every `interval` until ctx is done.
func (p *Profiler) Report(ctx context.Context, logger logging.Logger, interval time.Duration) {
	ticker := p.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := p.Snapshot()
			logger.Infow("process",
				"uptime", snap.Uptime.Truncate(time.Second),
				"goroutines", snap.Goroutines,
				"heap_alloc", snap.HeapAlloc,
				"rss", snap.RSS,
				"cpu_percent", snap.CPUPercent,
			)
			for _, op := range snap.Operations {
				logger.Infow("operation timing",
					"operation", op.Name,
					"avg", op.Avg.Truncate(time.Microsecond),
					"min", op.Min.Truncate(time.Microsecond),
					"max", op.Max.Truncate(time.Microsecond),
					"count", op.Count,
					"failures", op.Failures,
				)
			}
		}
	}
}
