package capture

import (
	"net/http"
	"time"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// Frame is one still image of the current camera view.
type Frame struct {
	// Data holds the encoded image bytes.
	Data []byte
	// MIMEType is the image content type, e.g. image/jpeg.
	MIMEType string
	// CapturedAt is when the frame was produced.
	CapturedAt time.Time
}

// NewFrame wraps encoded image bytes, sniffing the content type.
func NewFrame(data []byte, capturedAt time.Time) *Frame {
	return &Frame{
		Data:       data,
		MIMEType:   http.DetectContentType(data),
		CapturedAt: capturedAt,
	}
}

// Source samples the current camera state for a selection.
type Source interface {
	Capture(selection domain.Selection) (*Frame, domain.WorldPosition, error)
}

// Surface intersects a selection point with detected geometry.
type Surface interface {
	Raycast(point domain.Point) (domain.WorldPosition, bool)
}

// PlaneSurface is a plane facing the camera at a fixed distance.
// Viewport coordinates in [0,1]² map onto a Width x Height rectangle centered
// on the optical axis; the camera looks down -Z.
type PlaneSurface struct {
	Distance float32
	Width    float32
	Height   float32
}

// Raycast implements Surface.
func (p PlaneSurface) Raycast(point domain.Point) (domain.WorldPosition, bool) {
	if point.X < 0 || point.X > 1 || point.Y < 0 || point.Y > 1 || p.Distance <= 0 {
		return domain.WorldPosition{}, false
	}

	return domain.WorldPosition{
		X: float32(point.X-0.5) * p.Width,
		Y: float32(0.5-point.Y) * p.Height,
		Z: -p.Distance,
	}, true
}

// resolvePosition prefers the device hit and falls back to the surface.
func resolvePosition(surface Surface, selection domain.Selection) (domain.WorldPosition, error) {
	if selection.Hit != nil {
		return *selection.Hit, nil
	}

	if surface == nil {
		return domain.WorldPosition{}, domain.ErrNoSurfaceHit
	}

	position, ok := surface.Raycast(selection.Point)
	if !ok {
		return domain.WorldPosition{}, domain.ErrNoSurfaceHit
	}

	return position, nil
}
