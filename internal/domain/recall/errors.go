package recall

import "errors"

var (
	// ErrNoActiveFrame is returned when no camera frame is available for capture.
	ErrNoActiveFrame = errors.New("no active camera frame")
	// ErrNoSurfaceHit is returned when the selection point does not intersect a detected surface.
	ErrNoSurfaceHit = errors.New("selection does not hit a detected surface")

	// ErrIdentifyBackend wraps network or service failures of the vision model.
	ErrIdentifyBackend = errors.New("identify backend error")
	// ErrMalformedResponse is returned when the model answered with something that is not an object identity.
	ErrMalformedResponse = errors.New("malformed identify response")
	// ErrEmptyResponse is returned when the model answered with no text at all.
	ErrEmptyResponse = errors.New("empty identify response")

	// ErrRegistryUnavailable wraps transport or service failures of the recall registry.
	// It must never be presented to the user as "not recalled".
	ErrRegistryUnavailable = errors.New("recall registry unavailable")

	// ErrAdvisorBackend wraps failures of the disambiguation model calls.
	ErrAdvisorBackend = errors.New("advisor backend error")

	// ErrAnswerTimeout is returned when the user does not answer the clarifying question in time.
	ErrAnswerTimeout = errors.New("timed out waiting for user answer")
)
