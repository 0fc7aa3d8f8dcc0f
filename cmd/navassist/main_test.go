package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/navassist/config"
	"github.com/nvr-ai/navassist/inference/providers"
)

func TestParseFlagsAndApply(t *testing.T) {
	path, o, err := parseFlags([]string{
		"-config", "navassist.yaml",
		"-model", "/opt/yolov8n.onnx",
		"-image", "street.png",
		"-lang", "en",
		"-provider", "openvino",
		"-no-web",
		"-autostart",
		"-print",
	})
	require.NoError(t, err)
	assert.Equal(t, "navassist.yaml", path)
	assert.True(t, o.autostart)

	cfg := config.Default()
	require.NoError(t, o.apply(&cfg))
	assert.Equal(t, "/opt/yolov8n.onnx", cfg.Model.Path)
	assert.Equal(t, "street.png", cfg.Camera.Image)
	assert.Equal(t, "en", cfg.Narration.Language)
	assert.Equal(t, providers.OpenVINOProviderBackend, cfg.Provider.Backend)
	assert.False(t, cfg.Web.Enabled)
	assert.True(t, cfg.Narration.Stdout)
	assert.Equal(t, 0, cfg.Camera.Device)
}

func TestApplyRejectsInvalidOverrides(t *testing.T) {
	_, o, err := parseFlags([]string{"-provider", "tpu"})
	require.NoError(t, err)
	cfg := config.Default()
	assert.Error(t, o.apply(&cfg))

	_, o, err = parseFlags([]string{"-lang", "de"})
	require.NoError(t, err)
	cfg = config.Default()
	assert.Error(t, o.apply(&cfg))
}

func TestParseFlagsUnknown(t *testing.T) {
	_, _, err := parseFlags([]string{"-bogus"})
	assert.Error(t, err)
}

func TestPrintNarrator(t *testing.T) {
	var buf bytes.Buffer
	n := printNarrator(&buf)
	n.Speak("Обнаружено 2 объекта")
	n.Speak("⏹️ Остановлено")
	assert.Equal(t, "Обнаружено 2 объекта\n⏹️ Остановлено\n", buf.String())
}
