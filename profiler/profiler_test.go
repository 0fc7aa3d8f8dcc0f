package profiler

import (
	"runtime"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOperation(t *testing.T) {
	mock := clock.NewMock()
	p := New(Options{Clock: mock})

	done := p.StartOperation(OperationInference)
	mock.Add(40 * time.Millisecond)
	done(nil)

	done = p.StartOperation(OperationInference)
	mock.Add(20 * time.Millisecond)
	done(errors.New("timeout"))

	stats, ok := p.Operation(OperationInference)
	require.True(t, ok)
	assert.EqualValues(t, 2, stats.Count)
	assert.EqualValues(t, 1, stats.Failures)
	assert.Equal(t, 20*time.Millisecond, stats.Last)
	assert.Equal(t, 30*time.Millisecond, stats.Avg)
	assert.Equal(t, 20*time.Millisecond, stats.Min)
	assert.Equal(t, 40*time.Millisecond, stats.Max)
}

func TestRecordSlidingWindow(t *testing.T) {
	p := New(Options{MaxSamples: 2, Clock: clock.NewMock()})

	p.Record(OperationDecode, 10*time.Millisecond, nil)
	p.Record(OperationDecode, 20*time.Millisecond, nil)
	p.Record(OperationDecode, 30*time.Millisecond, nil)

	stats, ok := p.Operation(OperationDecode)
	require.True(t, ok)
	assert.EqualValues(t, 3, stats.Count)
	assert.Equal(t, 25*time.Millisecond, stats.Avg)
	assert.Equal(t, 10*time.Millisecond, stats.Min)
}

func TestSnapshot(t *testing.T) {
	mock := clock.NewMock()
	p := New(Options{Clock: mock})
	p.Record(OperationTick, time.Millisecond, nil)
	p.Record(OperationDecode, time.Millisecond, nil)
	mock.Add(time.Minute)

	snap := p.Snapshot()
	assert.Equal(t, time.Minute, snap.Uptime)
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, OperationDecode, snap.Operations[0].Name)
	assert.Equal(t, OperationTick, snap.Operations[1].Name)
	assert.Positive(t, snap.Goroutines)
	if runtime.GOOS == "linux" {
		assert.Positive(t, snap.RSS)
	}

	_, ok := p.Operation("missing")
	assert.False(t, ok)
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() {
		p.StartOperation(OperationTick)(nil)
		p.Record(OperationTick, time.Second, nil)
	})
}
