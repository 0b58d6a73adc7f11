package recall

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// FileSource reads recall records from a YAML or JSON snapshot on disk.
// The file holds a list of records; list order is the match order.
type FileSource struct {
	// path is the filesystem location of the snapshot.
	path string
	// mu serializes reads of the snapshot file.
	mu sync.Mutex
}

// NewFileSource creates a source reading the snapshot at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path: filepath.Clean(path),
	}
}

// FindFirst implements Source.
func (s *FileSource) FindFirst(ctx context.Context, productName string) (*domain.RecallRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	contents, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("read recall snapshot: %w", err)
	}

	var records []record
	if err = yaml.Unmarshal(contents, &records); err != nil {
		return nil, fmt.Errorf("decode recall snapshot: %w", err)
	}

	for i := range records {
		if records[i].ProductName == productName {
			return records[i].toDomain(), nil
		}
	}

	return nil, nil //nolint:nilnil // No matching record.
}
