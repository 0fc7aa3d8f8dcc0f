package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nvr-ai/navassist/models/postprocess"
	"github.com/nvr-ai/navassist/narration"
)

func TestLogPresenter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	phrases, err := narration.Phrases(narration.LanguageRussian)
	require.NoError(t, err)
	p := LogPresenter{Logger: zap.New(core).Sugar(), Phrases: phrases}

	p.ShowStatus("✅ Готов к работе")
	p.ShowObjects(postprocess.Summary{})
	p.ShowObjects(postprocess.Summary{{Class: "person", Count: 2}, {Class: "dog", Count: 1}})

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "✅ Готов к работе", entries[0].ContextMap()["text"])
	assert.Equal(t, "Объекты не обнаружены", entries[1].ContextMap()["list"])
	assert.Equal(t, []interface{}{"человек: 2 шт", "собака: 1 шт"}, entries[2].ContextMap()["list"])
}

func TestMultiPresenter(t *testing.T) {
	a, b := &MockPresenter{}, &MockPresenter{}
	m := NewMultiPresenter(a, nil, b)

	m.ShowStatus("scanning")
	m.ShowObjects(postprocess.Summary{{Class: "car", Count: 1}})

	for _, p := range []*MockPresenter{a, b} {
		assert.Equal(t, []string{"scanning"}, p.Statuses())
		assert.Len(t, p.Summaries(), 1)
	}
}
