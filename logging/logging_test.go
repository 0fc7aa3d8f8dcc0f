package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zap.AtomicLevel
	}{
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"WARN", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"warning", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{" error ", zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{"", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"verbose", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want.Level(), ParseLevel(tt.in))
		})
	}
}

func TestNewConfigFormats(t *testing.T) {
	assert.Equal(t, "console", NewConfig("info", FormatConsole).Encoding)
	assert.Equal(t, "json", NewConfig("info", FormatJSON).Encoding)
	assert.Equal(t, "console", NewConfig("info", Format("xml")).Encoding)
}

func TestNewAndGlobal(t *testing.T) {
	l, err := New("navassist", "debug", FormatJSON)
	require.NoError(t, err)
	require.NotNil(t, l)

	ReplaceGlobal(l)
	assert.Same(t, l, Global())
}
