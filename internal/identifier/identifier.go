// Package identifier asks the vision model what object is in a frame.
package identifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/oshokin/recall-lens/internal/capture"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/inference"
	"github.com/oshokin/recall-lens/internal/logger"
)

// Instruction is sent together with every frame.
const Instruction = "Identify and return the following in JSON format considering the object visible " +
	"in the camera view, 'objectName' (provide in format Brand - Object Name)"

// objectNameField is the JSON field carrying the identity.
const objectNameField = "objectName"

// errFrameRequired is returned when Identify gets no frame.
var errFrameRequired = errors.New("frame must be provided")

// Identifier resolves object identities from frames.
type Identifier struct {
	// backend is the shared vision model client.
	backend inference.Backend
}

// New creates an identifier on top of a model backend.
func New(backend inference.Backend) *Identifier {
	return &Identifier{
		backend: backend,
	}
}

// Identify sends the frame to the model and parses the object identity.
func (i *Identifier) Identify(ctx context.Context, frame *capture.Frame) (*domain.ObjectIdentity, error) {
	if frame == nil {
		return nil, errFrameRequired
	}

	text, err := i.backend.Generate(ctx, &inference.Request{
		Instruction: Instruction,
		Image: &inference.Image{
			Data:     frame.Data,
			MIMEType: frame.MIMEType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIdentifyBackend, err)
	}

	identity, err := ParseIdentity(text)
	if err != nil {
		logger.WarnKV(ctx, "Unusable identify response", "error", err, "response", text)
		return nil, err
	}

	return identity, nil
}

// ParseIdentity extracts the object name from a model reply.
// Markdown fences are stripped and prose around a single JSON object is ignored.
func ParseIdentity(text string) (*domain.ObjectIdentity, error) {
	cleaned := stripFences(text)
	if cleaned == "" {
		return nil, domain.ErrEmptyResponse
	}

	if !gjson.Valid(cleaned) {
		start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start || !gjson.Valid(cleaned[start:end+1]) {
			return nil, fmt.Errorf("%w: not JSON", domain.ErrMalformedResponse)
		}

		cleaned = cleaned[start : end+1]
	}

	field := gjson.Get(cleaned, objectNameField)
	if field.Type != gjson.String {
		return nil, fmt.Errorf("%w: %s is missing or not a string", domain.ErrMalformedResponse, objectNameField)
	}

	name := strings.TrimSpace(field.String())
	if name == "" {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrMalformedResponse, objectNameField)
	}

	return &domain.ObjectIdentity{Name: name}, nil
}

// stripFences removes markdown code fences the model tends to wrap JSON in.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	return strings.TrimSpace(text)
}
