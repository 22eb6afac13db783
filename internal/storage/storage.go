package storage

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lehigh-university-libraries/slscollect/internal/models"
	"github.com/lehigh-university-libraries/slscollect/internal/pattern"
	"github.com/shirou/gopsutil/v3/disk"
)

var (
	ErrNotDirectory = errors.New("output path exists and is not a directory")
	ErrEmptyFrame   = errors.New("frame has no image for pattern")
)

// FilenameFor returns the canonical name of a captured frame,
// {startMillis}_{index:02}_{patternName}.png
func FilenameFor(startMillis int64, index int, patternName string) string {
	return fmt.Sprintf("%d_%02d_%s.png", startMillis, index, patternName)
}

// FrameStore writes captured frames into one output directory and keeps
// track of the files each session has written.
type FrameStore struct {
	dir      string
	sessions map[int64][]string
	mu       sync.RWMutex
}

// New prepares dir for writing, creating it (and its parents) if absent
func New(dir string) (*FrameStore, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		slog.Info("Created output directory", "dir", dir)
	default:
		return nil, fmt.Errorf("failed to stat output directory: %w", err)
	}

	return &FrameStore{
		dir:      dir,
		sessions: make(map[int64][]string),
	}, nil
}

// Dir returns the output directory
func (s *FrameStore) Dir() string {
	return s.dir
}

// Save persists the frame captured while p was projected. Color patterns
// keep the full-color frame, gray patterns the grayscale one. The PNG is
// written to a temporary sibling first, so a failed write never leaves a
// truncated file under the final name.
func (s *FrameStore) Save(startMillis int64, index int, p *pattern.Pattern, frame models.Frame) (string, error) {
	if frame.Empty() {
		return "", fmt.Errorf("%w %s", ErrEmptyFrame, p.Name)
	}
	img := frame.For(p.Mode)

	path := filepath.Join(s.dir, FilenameFor(startMillis, index, p.Name))
	if err := writePNG(path, img); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[startMillis] = append(s.sessions[startMillis], path)
	s.mu.Unlock()

	slog.Debug("Frame saved", "path", path, "mode", p.Mode.String())
	return path, nil
}

func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*.png.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	// CreateTemp makes the file 0600; frames are read by other tools
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("PNG encode failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move frame into place: %w", err)
	}
	return nil
}

// Files returns the paths written for one session, in write order
func (s *FrameStore) Files(startMillis int64) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := s.sessions[startMillis]
	result := make([]string, len(files))
	copy(result, files)
	return result
}

// Forget drops the bookkeeping for a session; files on disk are untouched
func (s *FrameStore) Forget(startMillis int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, startMillis)
}

// FreeBytes reports the free space on the filesystem holding the output directory
func (s *FrameStore) FreeBytes() (uint64, error) {
	usage, err := disk.Usage(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read disk usage: %w", err)
	}
	return usage.Free, nil
}

// EstimateBytes is an upper bound on the size of one session's frames,
// uncompressed 8-bit RGBA per color pattern and 8-bit gray per gray pattern.
func EstimateBytes(c *pattern.Catalog) uint64 {
	var total uint64
	for _, p := range c.Patterns {
		px := uint64(p.Width()) * uint64(p.Height())
		if p.Mode == models.Color {
			px *= 4
		}
		total += px
	}
	return total
}
