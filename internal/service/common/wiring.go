//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/recall-lens/internal/advisor"
	"github.com/oshokin/recall-lens/internal/capture"
	"github.com/oshokin/recall-lens/internal/config"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/identifier"
	"github.com/oshokin/recall-lens/internal/inference"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/metrics"
	"github.com/oshokin/recall-lens/internal/registry"
	"github.com/oshokin/recall-lens/internal/repository/recall"
)

var (
	// errUnsupportedProvider is returned for an inference provider without a backend.
	errUnsupportedProvider = errors.New("unsupported inference provider")
	// errUnsupportedRegistry is returned for a registry kind without a source.
	errUnsupportedRegistry = errors.New("unsupported registry kind")
)

// NewBackend creates the model backend selected by settings.
// Every call made through it is bounded by settings.Timeout.
func NewBackend(ctx context.Context, settings *config.Config) (inference.Backend, error) {
	var (
		backend inference.Backend
		err     error
	)

	switch settings.Inference.Provider {
	case config.ProviderGemini:
		backend, err = inference.NewGemini(ctx, inference.GeminiConfig{
			APIKey:     settings.Secrets.APIKey,
			Model:      settings.Inference.Model,
			APIVersion: settings.Inference.APIVersion,
		})
	case config.ProviderOpenAI:
		backend, err = inference.NewOpenAI(inference.OpenAIConfig{
			APIKey:  settings.Secrets.APIKey,
			Model:   settings.Inference.Model,
			BaseURL: settings.Inference.BaseURL,
		})
	case config.ProviderMock:
		backend = inference.NewMock(settings.Inference.MockObjectName)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedProvider, settings.Inference.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", settings.Inference.Provider, err)
	}

	return withTimeout(backend, settings.Timeout), nil
}

// NewRecallSource opens the recall record source selected by settings.
// The returned function releases it and is never nil.
func NewRecallSource(ctx context.Context, settings *config.Config) (recall.Source, func() error, error) {
	noop := func() error { return nil }

	switch settings.Registry.Kind {
	case config.RegistryFile:
		return recall.NewFileSource(settings.Registry.Path), noop, nil
	case config.RegistryFirebase:
		source := recall.NewFirebaseSource(
			settings.Registry.URL,
			settings.Registry.Collection,
			settings.Secrets.RegistryToken,
			settings.Timeout,
		)

		return source, noop, nil
	case config.RegistryFirestore:
		source, err := recall.NewFirestoreSource(ctx, settings.Registry.ProjectID, settings.Registry.Collection)
		if err != nil {
			return nil, noop, fmt.Errorf("open firestore registry: %w", err)
		}

		return source, source.Close, nil
	case config.RegistrySQLite:
		source, err := recall.OpenSQLite(ctx, settings.Registry.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite registry: %w", err)
		}

		return source, source.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", errUnsupportedRegistry, settings.Registry.Kind)
	}
}

// Pipeline is a verification flow together with the resources it owns.
type Pipeline struct {
	// Flow is the ready state machine.
	Flow *flow.Flow
	// Metrics are the instruments the flow reports to.
	Metrics *metrics.Metrics

	// close releases the recall source.
	close func() error
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	if p == nil || p.close == nil {
		return nil
	}

	return p.close()
}

// NewPipeline wires the backend, registry and advisor selected by settings
// into a flow that captures from source and publishes to sink.
// Metrics are registered with reg when it is not nil.
func NewPipeline(
	ctx context.Context,
	settings *config.Config,
	source capture.Source,
	sink flow.Sink,
	reg prometheus.Registerer,
) (*Pipeline, error) {
	backend, err := NewBackend(ctx, settings)
	if err != nil {
		return nil, err
	}

	recallSource, closeSource, err := NewRecallSource(ctx, settings)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	verificationFlow := flow.New(
		source,
		identifier.New(backend),
		registry.New(recallSource),
		advisor.New(backend),
		sink,
		flow.WithMetrics(m),
		flow.WithAnswerTimeout(settings.AnswerTimeout),
		flow.WithRetry(flow.RetryPolicy{
			MaxRetries:      settings.Retry.MaxRetries,
			InitialInterval: settings.Retry.InitialInterval,
		}),
	)

	logger.InfoKV(ctx, "Verification pipeline ready",
		"provider", settings.Inference.Provider,
		"model", settings.Inference.Model,
		"registry", settings.Registry.Kind,
		"max_retries", settings.Retry.MaxRetries,
		"answer_timeout", settings.AnswerTimeout)

	return &Pipeline{
		Flow:    verificationFlow,
		Metrics: m,
		close:   closeSource,
	}, nil
}

// NewSurface returns the fallback plane configured in settings.
func NewSurface(settings *config.Config) capture.PlaneSurface {
	return capture.PlaneSurface{
		Distance: settings.Surface.Distance,
		Width:    settings.Surface.Width,
		Height:   settings.Surface.Height,
	}
}

// withTimeout bounds every Generate call by timeout.
func withTimeout(backend inference.Backend, timeout time.Duration) inference.Backend {
	if timeout <= 0 {
		return backend
	}

	return inference.BackendFunc(func(ctx context.Context, req *inference.Request) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return backend.Generate(ctx, req)
	})
}

// ApplyLogLevel switches the global logger to the configured level, if any.
func ApplyLogLevel(ctx context.Context, level string) {
	if level == "" {
		return
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping the current one", "log_level", level)

		return
	}

	logger.SetLevel(parsed)
}
