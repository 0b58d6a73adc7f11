package verification

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/logger"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	PushFrame(ctx context.Context, data []byte) error
	Select(ctx context.Context, selection domain.Selection) (string, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) error
	Cancel(ctx context.Context, sessionID string) bool
	Session(ctx context.Context) *domain.Session
	Subscribe(ctx context.Context) (<-chan flow.Event, func())
}

// Server implements the VerificationService gRPC API.
type Server struct {
	// service provides the verification flow.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// PushFrame stores the latest camera frame.
func (s *Server) PushFrame(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if req == nil || len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "frame is required")
	}

	if err := s.service.PushFrame(ctx, req.GetValue()); err != nil {
		return nil, status.Error(codes.Internal, "unable to store frame")
	}

	return new(emptypb.Empty), nil
}

// Select starts a verification session at the tapped point.
func (s *Server) Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	selection, err := SelectionFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sessionID, err := s.service.Select(ctx, selection)
	if err != nil {
		return nil, toStatus(err)
	}

	return SessionIDToStruct(sessionID), nil
}

// SubmitAnswer delivers the answer to the clarifying question.
func (s *Server) SubmitAnswer(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	sessionID, answer := AnswerFromStruct(req)

	if err := s.service.SubmitAnswer(ctx, sessionID, answer); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// Cancel aborts the given session, or the active one when no session id is sent.
func (s *Server) Cancel(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	s.service.Cancel(ctx, SessionIDFromStruct(req))

	return new(emptypb.Empty), nil
}

// GetSession returns a snapshot of the active session.
func (s *Server) GetSession(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return SessionToStruct(s.service.Session(ctx)), nil
}

// Events streams flow events until the client goes away or the server stops.
// The stream opens with the current phase.
func (s *Server) Events(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	events, unsubscribe := s.service.Subscribe(ctx)
	defer unsubscribe()

	logger.Debug(ctx, "Event subscriber attached")

	// The first message is the current phase, so the client knows it is subscribed.
	current := flow.Event{Kind: flow.EventPhase, Phase: domain.PhaseIdle, At: time.Now()}
	if session := s.service.Session(ctx); session != nil {
		current.SessionID = session.ID
		current.Phase = session.Phase
	}

	if err := stream.Send(EventToStruct(current)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			if err := stream.Send(EventToStruct(event)); err != nil {
				return err
			}
		}
	}
}

// toStatus maps flow and domain errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, flow.ErrBusy):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, flow.ErrNotAwaitingAnswer):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, flow.ErrUnknownSession):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrNoActiveFrame):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrNoSurfaceHit):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "verification failed")
	}
}
