package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

// TestPlaneSurface_Raycast checks the projection and the out-of-view misses.
func TestPlaneSurface_Raycast(t *testing.T) {
	t.Parallel()

	plane := PlaneSurface{Distance: 2, Width: 4, Height: 2}

	center, ok := plane.Raycast(domain.Point{X: 0.5, Y: 0.5})
	require.True(t, ok)
	require.Equal(t, domain.WorldPosition{X: 0, Y: 0, Z: -2}, center)

	corner, ok := plane.Raycast(domain.Point{X: 0, Y: 0})
	require.True(t, ok)
	require.Equal(t, domain.WorldPosition{X: -2, Y: 1, Z: -2}, corner)

	_, ok = plane.Raycast(domain.Point{X: 1.5, Y: 0.5})
	require.False(t, ok)

	_, ok = PlaneSurface{}.Raycast(domain.Point{X: 0.5, Y: 0.5})
	require.False(t, ok)
}

// TestFileSource covers missing frames, surface misses and device hits.
func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "frame.png")
	source := NewFileSource(path, PlaneSurface{Distance: 1, Width: 1, Height: 1})

	_, _, err := source.Capture(domain.Selection{Point: domain.Point{X: 0.5, Y: 0.5}})
	require.ErrorIs(t, err, domain.ErrNoActiveFrame)

	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	_, _, err = source.Capture(domain.Selection{Point: domain.Point{X: -1, Y: 0.5}})
	require.ErrorIs(t, err, domain.ErrNoSurfaceHit)

	frame, position, err := source.Capture(domain.Selection{Point: domain.Point{X: 0.5, Y: 0.5}})
	require.NoError(t, err)
	require.Equal(t, "image/png", frame.MIMEType)
	require.Equal(t, domain.WorldPosition{Z: -1}, position)

	hit := &domain.WorldPosition{X: 0.1, Y: -0.3, Z: -0.8}

	_, position, err = source.Capture(domain.Selection{Point: domain.Point{X: 9, Y: 9}, Hit: hit})
	require.NoError(t, err)
	require.Equal(t, *hit, position)
}

// TestBuffer verifies push, clear and capture semantics.
func TestBuffer(t *testing.T) {
	t.Parallel()

	buffer := NewBuffer(nil)
	selection := domain.Selection{Hit: &domain.WorldPosition{Z: -1}}

	_, _, err := buffer.Capture(selection)
	require.ErrorIs(t, err, domain.ErrNoActiveFrame)

	buffer.Push(NewFrame(pngHeader, time.Now()))

	frame, position, err := buffer.Capture(selection)
	require.NoError(t, err)
	require.Equal(t, pngHeader, frame.Data)
	require.Equal(t, domain.WorldPosition{Z: -1}, position)

	// Without a surface only device hits resolve.
	_, _, err = buffer.Capture(domain.Selection{Point: domain.Point{X: 0.5, Y: 0.5}})
	require.ErrorIs(t, err, domain.ErrNoSurfaceHit)

	buffer.Push(nil)

	_, _, err = buffer.Capture(selection)
	require.ErrorIs(t, err, domain.ErrNoActiveFrame)
}
