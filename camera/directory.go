package camera

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FrameFile is an image file of a recorded frame sequence.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the number parsed from a "frame-N" or "N" file name, or -1.
	Frame int
}

// ListFrameFiles lists the image files of dir in playback order.
//
// Files named "frame-N.ext" or "N.ext" are ordered by N. Other image files follow
// in name order.
//
// Arguments:
//   - dir: Directory containing the frames.
//
// Returns:
//   - []FrameFile: The frames in playback order.
//   - error: An error if the directory cannot be read.
func ListFrameFiles(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame directory %s", dir)
	}

	var files []FrameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp":
		default:
			continue
		}

		frame, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSuffix(name, filepath.Ext(name)), "frame-"))
		if err != nil || frame < 0 {
			frame = -1
		}
		files = append(files, FrameFile{Path: filepath.Join(dir, name), Frame: frame})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if (a.Frame < 0) != (b.Frame < 0) {
			return a.Frame >= 0
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Path < b.Path
	})

	return files, nil
}

// DirectorySource replays the frames of a directory in a loop, one per read.
type DirectorySource struct {
	mu     sync.Mutex
	files  []FrameFile
	next   int
	closed bool
}

// NewDirectorySource lists the frames of dir.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	files, err := ListFrameFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrFrameUnavailable, "no image files in %s", dir)
	}
	return &DirectorySource{files: files}, nil
}

// Len returns the number of frames in the sequence.
func (s *DirectorySource) Len() int {
	return len(s.files)
}

// Read decodes the next frame, wrapping around after the last one.
func (s *DirectorySource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.Wrap(ErrFrameUnavailable, "directory source closed")
	}
	file := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	still, err := NewStillSource(file.Path)
	if err != nil {
		return nil, err
	}
	return still.img, nil
}

// Close stops the replay.
func (s *DirectorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
