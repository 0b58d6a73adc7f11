//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/recall-lens/internal/api/grpc/verification"
	"github.com/oshokin/recall-lens/internal/config"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/version"
)

// Client wraps the gRPC VerificationService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to recall-server.
	conn *grpc.ClientConn
	// api is the VerificationService client stub.
	api *api.VerificationClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor identifies this client in server logs.
	actor string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor sends the given username@hostname with every call.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errFrameRequired is returned when an empty frame is pushed.
	errFrameRequired = errors.New("frame must be provided")
)

// Dial establishes a gRPC connection to recall-server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial recall server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewVerificationClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// PushFrame uploads the current camera frame.
func (c *Client) PushFrame(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return errFrameRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.PushFrame(callCtx, wrapperspb.Bytes(data)); err != nil {
		return fmt.Errorf("push frame: %w", err)
	}

	return nil
}

// Select starts a remote session and returns its id.
func (c *Client) Select(ctx context.Context, selection domain.Selection) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.Select(callCtx, api.SelectionToStruct(selection))
	if err != nil {
		return "", fmt.Errorf("select: %w", err)
	}

	return api.SessionIDFromStruct(response), nil
}

// SubmitAnswer answers the clarifying question of the given session.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.SubmitAnswer(callCtx, api.AnswerToStruct(sessionID, answer)); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}

	return nil
}

// Cancel aborts the given remote session. An empty sessionID aborts
// whichever session is active.
func (c *Client) Cancel(ctx context.Context, sessionID string) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Cancel(callCtx, api.SessionIDToStruct(sessionID)); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	return nil
}

// GetSession returns the active remote session, or nil while the server is idle.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.api.GetSession(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return api.SessionFromStruct(response)
}

// Events subscribes to server events and returns once the subscription is live.
// The channel is closed when ctx is done or the stream breaks. The stream is
// not bound by the call timeout.
func (c *Client) Events(ctx context.Context) (<-chan flow.Event, error) {
	stream, err := c.api.Events(api.WithActor(ctx, c.actor), new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("subscribe to events: %w", err)
	}

	// The server opens every stream with the current phase; waiting for it
	// guarantees the subscription is live before the caller selects.
	first, err := stream.Recv()
	if err != nil {
		return nil, fmt.Errorf("receive current phase: %w", err)
	}

	events := make(chan flow.Event, flow.DefaultSubscriberBuffer)

	if current, err := api.EventFromStruct(first); err == nil {
		events <- current
	}

	go func() {
		defer close(events)

		for {
			message, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					logger.WarnKV(ctx, "Event stream closed", "error", err)
				}

				return
			}

			event, err := api.EventFromStruct(message)
			if err != nil {
				logger.WarnKV(ctx, "Skipping malformed event", "error", err)

				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = api.WithActor(ctx, c.actor)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
