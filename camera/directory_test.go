package camera

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, width int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, 4))))
}

func TestListFrameFilesOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-10.png", "frame-2.png", "3.jpg", "cover.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "frame-1.png"), 0o700))

	files, err := ListFrameFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{"frame-2.png", "3.jpg", "frame-10.png", "cover.png"}, names)
	assert.Equal(t, -1, files[3].Frame)
}

func TestDirectorySourceLoops(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame-0.png"), 2)
	writePNG(t, filepath.Join(dir, "frame-1.png"), 3)

	s, err := NewDirectorySource(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	ctx := context.Background()
	var widths []int
	for i := 0; i < 3; i++ {
		img, err := s.Read(ctx)
		require.NoError(t, err)
		widths = append(widths, img.Bounds().Dx())
	}
	assert.Equal(t, []int{2, 3, 2}, widths)

	require.NoError(t, s.Close())
	_, err = s.Read(ctx)
	assert.True(t, errors.Is(err, ErrFrameUnavailable))
}

func TestDirectorySourceEmpty(t *testing.T) {
	_, err := NewDirectorySource(t.TempDir())
	assert.True(t, errors.Is(err, ErrFrameUnavailable))

	_, err = NewDirectorySource(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestOpenSelectsDirectory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "1.png"), 5)

	s, err := Open(Config{Dir: dir, Device: -1})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &DirectorySource{}, s)
}
