package server

import (
	"context"
	"time"

	api "github.com/oshokin/recall-lens/internal/api/grpc/verification"
	"github.com/oshokin/recall-lens/internal/capture"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/logger"
)

// service binds the frame buffer, the flow and the event hub for the transport.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// buffer holds the latest frame pushed by the client.
	buffer *capture.Buffer
	// flow is the verification state machine capturing from buffer.
	flow *flow.Flow
	// hub fans flow events out to event streams.
	hub *flow.Hub
}

// newService creates a service over already wired components.
func newService(buffer *capture.Buffer, verificationFlow *flow.Flow, hub *flow.Hub) *service {
	return &service{
		buffer: buffer,
		flow:   verificationFlow,
		hub:    hub,
	}
}

// PushFrame replaces the current camera frame.
func (s *service) PushFrame(ctx context.Context, data []byte) error {
	frame := capture.NewFrame(data, time.Now())
	s.buffer.Push(frame)

	logger.DebugKV(ctx, "Frame pushed", "bytes", len(data), "mime_type", frame.MIMEType)

	return nil
}

// Select starts a session at the tapped point.
func (s *service) Select(ctx context.Context, selection domain.Selection) (string, error) {
	sessionID, err := s.flow.Select(ctx, selection)
	if err != nil {
		logger.InfoKV(ctx, "Selection rejected", "actor", api.ActorFromContext(ctx), "error", err)

		return sessionID, err
	}

	logger.InfoKV(ctx, "Selection accepted", "actor", api.ActorFromContext(ctx), "session_id", sessionID)

	return sessionID, nil
}

// SubmitAnswer forwards the answer to the flow.
func (s *service) SubmitAnswer(ctx context.Context, sessionID, answer string) error {
	return s.flow.SubmitAnswer(ctx, sessionID, answer)
}

// Cancel aborts the given session, or the active one for an empty id.
func (s *service) Cancel(ctx context.Context, sessionID string) bool {
	cancelled := s.flow.Cancel(ctx, sessionID)
	if cancelled {
		logger.InfoKV(ctx, "Session cancelled by client", "actor", api.ActorFromContext(ctx), "session_id", sessionID)
	}

	return cancelled
}

// Session returns a copy of the active session.
func (s *service) Session(context.Context) *domain.Session {
	return s.flow.Session()
}

// Subscribe attaches an event stream to the hub.
func (s *service) Subscribe(ctx context.Context) (<-chan flow.Event, func()) {
	logger.DebugKV(ctx, "Event stream opened", "actor", api.ActorFromContext(ctx))

	return s.hub.Subscribe()
}
