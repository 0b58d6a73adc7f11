//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/recall-lens/internal/capture"
	"github.com/oshokin/recall-lens/internal/config"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/inference"
)

const snapshot = `
- productName: Acme - Kettle
  recallReason: Lid may detach while pouring
  identificationInfo: Model K-100, lots 2301 through 2350
  url: https://acme.example/recall
`

func mockSettings(t *testing.T, objectName string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "recalls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o600))

	settings := &config.Config{
		ServerAddress: "127.0.0.1:50551",
		Inference: config.Inference{
			Provider:       config.ProviderMock,
			MockObjectName: objectName,
		},
		Registry: config.Registry{
			Kind: config.RegistryFile,
			Path: path,
		},
	}
	require.NoError(t, config.Validate(settings))

	return settings
}

// TestNewBackend_Providers checks provider selection and key requirements.
func TestNewBackend_Providers(t *testing.T) {
	t.Parallel()

	settings := mockSettings(t, "Acme - Kettle")

	backend, err := NewBackend(t.Context(), settings)
	require.NoError(t, err)

	reply, err := backend.Generate(t.Context(), &inference.Request{Instruction: "Answer YES or NO"})
	require.NoError(t, err)
	require.Equal(t, "NO", reply)

	settings.Inference = config.Inference{Provider: config.ProviderOpenAI, Model: config.DefaultOpenAIModel}

	_, err = NewBackend(t.Context(), settings)
	require.Error(t, err)

	settings.Inference = config.Inference{Provider: "llama"}

	_, err = NewBackend(t.Context(), settings)
	require.ErrorIs(t, err, errUnsupportedProvider)
}

// TestWithTimeout ensures each model call gets its own deadline.
func TestWithTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time

	backend := withTimeout(inference.BackendFunc(func(ctx context.Context, _ *inference.Request) (string, error) {
		deadline, _ = ctx.Deadline()

		return "ok", nil
	}), time.Minute)

	_, err := backend.Generate(t.Context(), &inference.Request{Instruction: "hi"})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

// TestNewRecallSource_Kinds opens the local registry kinds.
func TestNewRecallSource_Kinds(t *testing.T) {
	t.Parallel()

	settings := mockSettings(t, "Acme - Kettle")

	source, closeSource, err := NewRecallSource(t.Context(), settings)
	require.NoError(t, err)
	require.NoError(t, closeSource())

	record, err := source.FindFirst(t.Context(), "Acme - Kettle")
	require.NoError(t, err)
	require.Equal(t, "https://acme.example/recall", record.RemediationURL)

	settings.Registry = config.Registry{Kind: config.RegistrySQLite, Path: filepath.Join(t.TempDir(), "recalls.db")}

	_, closeSource, err = NewRecallSource(t.Context(), settings)
	require.NoError(t, err)
	require.NoError(t, closeSource())

	settings.Registry = config.Registry{Kind: "ledger"}

	_, closeSource, err = NewRecallSource(t.Context(), settings)
	require.ErrorIs(t, err, errUnsupportedRegistry)
	require.NotNil(t, closeSource)
}

// TestPipeline_EndToEnd runs a whole session on the mock backend and a file registry.
func TestPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		objectName string
		wantStatus string
		wantPhase  domain.Phase
		wantAsked  bool
	}{
		{
			name:       "recalled but denied by the mock",
			objectName: "Acme - Kettle",
			wantStatus: domain.StatusNotRecalled,
			wantPhase:  domain.PhaseDenied,
			wantAsked:  true,
		},
		{
			name:       "not in the registry",
			objectName: "Acme - Toaster",
			wantStatus: domain.StatusNotRecalled,
			wantPhase:  domain.PhaseNotRecalled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := mockSettings(t, tt.objectName)
			hub := flow.NewHub(0)
			buffer := capture.NewBuffer(NewSurface(settings))
			reg := prometheus.NewRegistry()

			pipeline, err := NewPipeline(t.Context(), settings, buffer, hub, reg)
			require.NoError(t, err)

			t.Cleanup(func() {
				require.NoError(t, pipeline.Close())
			})

			events, unsubscribe := hub.Subscribe()
			defer unsubscribe()

			buffer.Push(capture.NewFrame([]byte("\xff\xd8\xff\xe0 frame"), time.Now()))

			sessionID, err := pipeline.Flow.Select(t.Context(), domain.Selection{Point: domain.Point{X: 0.5, Y: 0.5}})
			require.NoError(t, err)

			var out bytes.Buffer

			console := NewConsole(strings.NewReader("Lot 2400\n"), &out)

			ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
			defer cancel()

			outcome, err := console.Follow(ctx, events, sessionID, pipeline.Flow)
			require.NoError(t, err)
			require.Equal(t, tt.wantPhase, outcome.Phase)
			require.Equal(t, tt.objectName, outcome.Label.Title)
			require.Equal(t, tt.wantStatus, outcome.Label.Status)
			require.Empty(t, outcome.RemediationURL)
			require.Equal(t, tt.wantAsked, strings.Contains(out.String(), "> "))

			count, err := testutil.GatherAndCount(reg, "recall_sessions_total")
			require.NoError(t, err)
			require.Equal(t, 1, count)
		})
	}
}
