package inference

import (
	"context"
	"errors"
)

// Image is an encoded picture attached to a request.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is one model call.
type Request struct {
	// Instruction is the natural-language task.
	Instruction string
	// Image is attached when the task needs the camera frame.
	Image *Image
}

// Backend generates free text for a request.
type Backend interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req *Request) (string, error)

// Generate implements Backend.
func (f BackendFunc) Generate(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

var (
	// errRequestRequired is returned for a nil request.
	errRequestRequired = errors.New("request must be provided")
	// errAPIKeyRequired is returned when a provider needs a key and none is set.
	errAPIKeyRequired = errors.New("api key must be provided")
)
