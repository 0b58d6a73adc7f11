package integration

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/recall-lens/internal/config"
	"github.com/oshokin/recall-lens/internal/service/server"
)

const recallSnapshot = `
- productName: Acme - Kettle
  recallReason: Lid may detach while pouring
  identificationInfo: Model K-100, lots 2301 through 2350
  url: https://acme.example/recall
`

// reservePort returns a free local address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeSettings saves settings for the mock backend over a file registry.
func writeSettings(t *testing.T, addr, metricsAddr, objectName string) string {
	t.Helper()

	dir := t.TempDir()
	registryPath := filepath.Join(dir, "recalls.yaml")
	require.NoError(t, os.WriteFile(registryPath, []byte(recallSnapshot), 0o600))

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(cfgPath, &config.Config{
		ServerAddress:  addr,
		MetricsAddress: metricsAddr,
		Timeout:        5 * time.Second,
		Inference: config.Inference{
			Provider:       config.ProviderMock,
			MockObjectName: objectName,
		},
		Registry: config.Registry{
			Kind: config.RegistryFile,
			Path: registryPath,
		},
	}))

	return cfgPath
}

// startServer runs recall-server until the test ends and waits until it reports serving.
func startServer(t *testing.T, cfgPath, addr string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    cfgPath,
			ListenAddress: addr,
		})
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	defer func() {
		_ = conn.Close()
	}()

	health := healthpb.NewHealthClient(conn)

	require.Eventually(t, func() bool {
		callCtx, callCancel := context.WithTimeout(context.Background(), time.Second)
		defer callCancel()

		response, err := health.Check(callCtx, &healthpb.HealthCheckRequest{})

		return err == nil && response.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 10*time.Second, 50*time.Millisecond)
}

// writeFrame stores a small JPEG-looking frame.
func writeFrame(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0 kettle"), 0o600))

	return path
}
