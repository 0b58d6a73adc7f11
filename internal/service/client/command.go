package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/recall-lens/internal/config"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/service/common"
	"github.com/oshokin/recall-lens/internal/tracing"
)

// Options configures a remote scan.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// FramePath is the image uploaded as the current camera frame.
	FramePath string
	// X and Y are the tapped point in normalized viewport coordinates.
	X, Y float64
	// Input provides answers to the clarifying question, stdin when nil.
	Input io.Reader
	// Output receives the question and the result card, stdout when nil.
	Output io.Writer
}

// Run performs one remote verification session and prints the result card.
// A failed session is reported as common.ErrSessionFailed.
//
//nolint:funlen // Linear sequence of remote calls.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "recall-client")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	common.ApplyLogLevel(ctx, cfg.LogLevel)

	shutdownTracing, err := tracing.Setup(ctx, "recall-client", cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	defer func() {
		if shutdownErr := shutdownTracing(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.WarnKV(ctx, "Failed to flush traces", "error", shutdownErr)
		}
	}()

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	frame, err := os.ReadFile(filepath.Clean(opts.FramePath))
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress,
		common.WithCallTimeout(cfg.Timeout),
		common.WithActor(actor))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	current, err := client.GetSession(ctx)
	if err != nil {
		return err
	}

	if current != nil {
		logger.InfoKV(ctx, "Server is busy with another session",
			"session_id", current.ID,
			"phase", current.Phase.String())

		return fmt.Errorf("%w: server is busy", common.ErrSessionFailed)
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()

	events, err := client.Events(streamCtx)
	if err != nil {
		return err
	}

	if err = client.PushFrame(ctx, frame); err != nil {
		return err
	}

	sessionID, err := client.Select(ctx, domain.Selection{Point: domain.Point{X: opts.X, Y: opts.Y}})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Remote session started", "server_address", serverAddress, "session_id", sessionID)

	console := common.NewConsole(inputOrStdin(opts.Input), outputOrStdout(opts.Output))

	outcome, err := console.Follow(ctx, events, sessionID, client)
	if err != nil {
		if cancelErr := client.Cancel(context.WithoutCancel(ctx), sessionID); cancelErr != nil {
			logger.WarnKV(ctx, "Unable to cancel remote session", "error", cancelErr)
		}

		return fmt.Errorf("follow session: %w", err)
	}

	console.PrintResult(outcome)

	if outcome.Phase == domain.PhaseFailed {
		return fmt.Errorf("%w: %s", common.ErrSessionFailed, outcome.Notice)
	}

	return nil
}

func inputOrStdin(in io.Reader) io.Reader {
	if in == nil {
		return os.Stdin
	}

	return in
}

func outputOrStdout(out io.Writer) io.Writer {
	if out == nil {
		return os.Stdout
	}

	return out
}
