package verification

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// ActorMetadataKey carries the user@host of the calling client.
const ActorMetadataKey = "recall-actor"

// WithActor attaches the caller identity to outgoing calls.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, ActorMetadataKey, actor)
}

// ActorFromContext returns the caller identity of an incoming call, if any.
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(ActorMetadataKey)
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
