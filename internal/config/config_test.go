package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// validConfig returns the smallest configuration Validate accepts.
func validConfig() *Config {
	return &Config{
		ServerAddress: "127.0.0.1:50071",
		Registry: Registry{
			Kind: RegistryFile,
			Path: "recalls.yaml",
		},
	}
}

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))
	require.Error(t, Validate(nil))

	// Bad socket.
	settings := validConfig()
	settings.ServerAddress = "bad:address"
	require.Error(t, Validate(settings))

	// Unknown provider.
	settings = validConfig()
	settings.Inference.Provider = "llama"
	require.ErrorIs(t, Validate(settings), errUnknownProvider)

	// Firebase without URL.
	settings = validConfig()
	settings.Registry = Registry{Kind: RegistryFirebase}
	require.ErrorIs(t, Validate(settings), errRegistryLocation)

	// Firestore without project.
	settings = validConfig()
	settings.Registry = Registry{Kind: RegistryFirestore}
	require.ErrorIs(t, Validate(settings), errRegistryLocation)

	// Negative answer timeout.
	settings = validConfig()
	settings.AnswerTimeout = -time.Second
	require.ErrorIs(t, Validate(settings), errNegativeTimeout)

	// Relative tracing endpoint.
	settings = validConfig()
	settings.Tracing.Endpoint = "collector.internal"
	require.Error(t, Validate(settings))
}

// TestValidate_Defaults ensures omitted settings receive defaults.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := validConfig()
	require.NoError(t, Validate(settings))

	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, ProviderGemini, settings.Inference.Provider)
	require.Equal(t, DefaultGeminiModel, settings.Inference.Model)
	require.Equal(t, DefaultGeminiAPIVersion, settings.Inference.APIVersion)
	require.Equal(t, uint64(DefaultMaxRetries), settings.Retry.MaxRetries)
	require.Equal(t, DefaultRetryInterval, settings.Retry.InitialInterval)
	require.InDelta(t, DefaultSurfaceDistance, settings.Surface.Distance, 1e-6)

	firebase := validConfig()
	firebase.Registry = Registry{Kind: RegistryFirebase, URL: "https://recalls.firebaseio.com"}
	require.NoError(t, Validate(firebase))
	require.Equal(t, DefaultRecordPath, firebase.Registry.Collection)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back with env secrets applied.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Setenv("RECALL_API_KEY", "test-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := validConfig()
	settings.Inference = Inference{Provider: ProviderMock, MockObjectName: "Acme - Blender"}
	settings.AnswerTimeout = 2 * time.Minute
	settings.Secrets.APIKey = "must-not-be-saved"

	require.NoError(t, Save(path, settings))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "must-not-be-saved")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.Inference, loaded.Inference)
	require.Equal(t, settings.Registry, loaded.Registry)
	require.Equal(t, settings.AnswerTimeout, loaded.AnswerTimeout)
	require.Equal(t, "test-key", loaded.Secrets.APIKey)
}

// TestLoad_TracingFromEnv ensures the environment overrides the tracing section.
func TestLoad_TracingFromEnv(t *testing.T) {
	t.Setenv("RECALL_OTEL_ENDPOINT", "http://collector.internal:4318")
	t.Setenv("RECALL_OTEL_DISABLED", "true")

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := validConfig()
	settings.Tracing.Endpoint = "http://localhost:4318"
	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://collector.internal:4318", loaded.Tracing.Endpoint)
	require.True(t, loaded.Tracing.Disabled)
}
