package scan

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/recall-lens/internal/capture"
	"github.com/oshokin/recall-lens/internal/config"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/service/common"
	"github.com/oshokin/recall-lens/internal/tracing"
)

// Options configures a local scan.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// FramePath is the image treated as the current camera frame.
	FramePath string
	// X and Y are the tapped point in normalized viewport coordinates.
	X, Y float64
	// Input provides answers to the clarifying question, stdin when nil.
	Input io.Reader
	// Output receives the question and the result card, stdout when nil.
	Output io.Writer
}

// Run performs one verification session and prints the result card.
// A failed session is reported as common.ErrSessionFailed.
//
//nolint:funlen // Linear wiring of the local pipeline.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "recall-scan")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	common.ApplyLogLevel(ctx, settings.LogLevel)

	shutdownTracing, err := tracing.Setup(ctx, "recall-scan", settings.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	defer func() {
		if shutdownErr := shutdownTracing(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.WarnKV(ctx, "Failed to flush traces", "error", shutdownErr)
		}
	}()

	hub := flow.NewHub(flow.DefaultSubscriberBuffer)
	source := capture.NewFileSource(opts.FramePath, common.NewSurface(settings))

	pipeline, err := common.NewPipeline(ctx, settings, source, hub, nil)
	if err != nil {
		return fmt.Errorf("initialise pipeline: %w", err)
	}

	defer func() {
		if closeErr := pipeline.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close recall registry", "error", closeErr)
		}
	}()

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	console := common.NewConsole(inputOrStdin(opts.Input), outputOrStdout(opts.Output))

	sessionID, err := pipeline.Flow.Select(ctx, domain.Selection{Point: domain.Point{X: opts.X, Y: opts.Y}})
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrSessionFailed, flow.Notice(err))
	}

	outcome, err := console.Follow(ctx, events, sessionID, pipeline.Flow)
	if err != nil {
		pipeline.Flow.Cancel(context.WithoutCancel(ctx), sessionID)

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
