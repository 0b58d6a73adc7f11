package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// FileSource reads the current frame from an image file.
type FileSource struct {
	// path is the location of the frame image.
	path string
	// surface resolves selections without a device hit.
	surface Surface
}

// NewFileSource creates a source that reads the frame at path.
func NewFileSource(path string, surface Surface) *FileSource {
	return &FileSource{
		path:    filepath.Clean(path),
		surface: surface,
	}
}

// Capture implements Source.
func (s *FileSource) Capture(selection domain.Selection) (*Frame, domain.WorldPosition, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.WorldPosition{}, domain.ErrNoActiveFrame
		}

		return nil, domain.WorldPosition{}, fmt.Errorf("stat frame: %w", err)
	}

	position, err := resolvePosition(s.surface, selection)
	if err != nil {
		return nil, domain.WorldPosition{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, domain.WorldPosition{}, fmt.Errorf("read frame: %w", err)
	}

	if len(data) == 0 {
		return nil, domain.WorldPosition{}, domain.ErrNoActiveFrame
	}

	return NewFrame(data, info.ModTime()), position, nil
}
