package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "github.com/oshokin/recall-lens/internal/api/grpc/verification"
	"github.com/oshokin/recall-lens/internal/capture"
	"github.com/oshokin/recall-lens/internal/config"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/service/common"
	"github.com/oshokin/recall-lens/internal/tracing"
)

// Options controls the recall-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// MetricsAddress overrides metrics_addr from the settings.
	MetricsAddress string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// Run starts the gRPC server and blocks until context is canceled or a server stops.
// Loads configuration first, then determines listen address from config or override.
//
//nolint:funlen // Linear wiring of the server components.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "recall-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	common.ApplyLogLevel(ctx, settings.LogLevel)

	shutdownTracing, err := tracing.Setup(ctx, "recall-server", settings.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	defer func() {
		if shutdownErr := shutdownTracing(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.WarnKV(ctx, "Failed to flush traces", "error", shutdownErr)
		}
	}()

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	metricsAddress := settings.MetricsAddress
	if opts.MetricsAddress != "" {
		metricsAddress = opts.MetricsAddress
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := flow.NewHub(flow.DefaultSubscriberBuffer)
	buffer := capture.NewBuffer(common.NewSurface(settings))

	pipeline, err := common.NewPipeline(ctx, settings, buffer, hub, registry)
	if err != nil {
		return fmt.Errorf("initialise pipeline: %w", err)
	}

	defer func() {
		if closeErr := pipeline.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close recall registry", "error", closeErr)
		}
	}()

	svc := newService(buffer, pipeline.Flow, hub)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	api.RegisterVerificationServer(grpcServer, api.NewServer(svc))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	var metricsServer *http.Server
	if metricsAddress != "" {
		metricsServer = &http.Server{
			Addr:              metricsAddress,
			Handler:           newMetricsRouter(registry, pipeline.Flow),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	logger.InfoKV(ctx, "Recall server listening",
		"listen_address", lis.Addr().String(),
		"metrics_address", metricsAddress)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	if metricsServer != nil {
		group.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", err)
			}

			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down recall server")

		stopCtx := context.WithoutCancel(ctx)

		healthServer.Shutdown()
		pipeline.Flow.Cancel(stopCtx, "")
		hub.Close()
		grpcServer.GracefulStop()

		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(stopCtx, shutdownTimeout)
			defer cancel()

			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown metrics: %w", err)
			}
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Recall server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
