package verification

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "recall.v1.VerificationService"

// Full method names.
const (
	PushFrameFullMethod    = "/" + ServiceName + "/PushFrame"
	SelectFullMethod       = "/" + ServiceName + "/Select"
	SubmitAnswerFullMethod = "/" + ServiceName + "/SubmitAnswer"
	CancelFullMethod       = "/" + ServiceName + "/Cancel"
	GetSessionFullMethod   = "/" + ServiceName + "/GetSession"
	EventsFullMethod       = "/" + ServiceName + "/Events"
)

// VerificationServer is the server API of VerificationService.
type VerificationServer interface {
	PushFrame(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Select(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SubmitAnswer(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	Cancel(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	GetSession(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Events(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc describes VerificationService for grpc.ServiceRegistrar.
//
//nolint:gochecknoglobals // Service descriptors are package-level in grpc-go.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VerificationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PushFrame",
			Handler:    unaryHandler(PushFrameFullMethod, VerificationServer.PushFrame),
		},
		{
			MethodName: "Select",
			Handler:    unaryHandler(SelectFullMethod, VerificationServer.Select),
		},
		{
			MethodName: "SubmitAnswer",
			Handler:    unaryHandler(SubmitAnswerFullMethod, VerificationServer.SubmitAnswer),
		},
		{
			MethodName: "Cancel",
			Handler:    unaryHandler(CancelFullMethod, VerificationServer.Cancel),
		},
		{
			MethodName: "GetSession",
			Handler:    unaryHandler(GetSessionFullMethod, VerificationServer.GetSession),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Events",
			Handler:       eventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "recall/v1/verification.proto",
}

// RegisterVerificationServer registers srv on s.
func RegisterVerificationServer(s grpc.ServiceRegistrar, srv VerificationServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler decodes the request and runs call through the server interceptor chain.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(VerificationServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(VerificationServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(*Req)

			return call(server, ctx, typed)
		})
	}
}

func eventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(VerificationServer)

	return server.Events(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// VerificationClient is the client API of VerificationService.
type VerificationClient struct {
	cc grpc.ClientConnInterface
}

// NewVerificationClient creates a client stub over cc.
func NewVerificationClient(cc grpc.ClientConnInterface) *VerificationClient {
	return &VerificationClient{cc: cc}
}

// PushFrame stores the latest camera frame on the server.
func (c *VerificationClient) PushFrame(
	ctx context.Context,
	in *wrapperspb.BytesValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, PushFrameFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Select starts a session at the tapped point.
func (c *VerificationClient) Select(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SelectFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// SubmitAnswer answers the clarifying question.
func (c *VerificationClient) SubmitAnswer(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, SubmitAnswerFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Cancel aborts the given session, or the active one for an empty session id.
func (c *VerificationClient) Cancel(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, CancelFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// GetSession returns a snapshot of the active session.
func (c *VerificationClient) GetSession(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSessionFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Events subscribes to flow events.
func (c *VerificationClient) Events(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], EventsFullMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
