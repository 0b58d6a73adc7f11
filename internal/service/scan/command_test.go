package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/recall-lens/internal/config"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/service/common"
)

func writeSettings(t *testing.T, objectName string) string {
	t.Helper()

	dir := t.TempDir()
	registryPath := filepath.Join(dir, "recalls.yaml")

	require.NoError(t, os.WriteFile(registryPath, []byte(
		"- productName: Acme - Kettle\n"+
			"  recallReason: Lid may detach\n"+
			"  identificationInfo: Lots 2301 through 2350\n"+
			"  url: https://acme.example/recall\n"), 0o600))

	contents, err := yaml.Marshal(&config.Config{
		ServerAddress: "127.0.0.1:50551",
		Inference:     config.Inference{Provider: config.ProviderMock, MockObjectName: objectName},
		Registry:      config.Registry{Kind: config.RegistryFile, Path: registryPath},
	})
	require.NoError(t, err)

	settingsPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(settingsPath, contents, 0o600))

	return settingsPath
}

func writeFrame(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0 frame"), 0o600))

	return path
}

// TestRun_RecalledButDenied walks a whole session on the mock backend.
func TestRun_RecalledButDenied(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := Run(t.Context(), &Options{
		ConfigPath: writeSettings(t, "Acme - Kettle"),
		FramePath:  writeFrame(t),
		X:          0.5,
		Y:          0.5,
		Input:      strings.NewReader("Lot 2400\n"),
		Output:     &out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Acme - Kettle")
	require.Contains(t, out.String(), domain.StatusNotRecalled)
	require.NotContains(t, out.String(), "https://acme.example/recall")
}

// TestRun_MissingFrame reports a failed session for an absent frame.
func TestRun_MissingFrame(t *testing.T) {
	t.Parallel()

	err := Run(t.Context(), &Options{
		ConfigPath: writeSettings(t, "Acme - Kettle"),
		FramePath:  filepath.Join(t.TempDir(), "missing.jpg"),
		X:          0.5,
		Y:          0.5,
		Input:      strings.NewReader(""),
		Output:     new(bytes.Buffer),
	})
	require.ErrorIs(t, err, common.ErrSessionFailed)
}

// TestRun_MissingSettings fails before any session starts.
func TestRun_MissingSettings(t *testing.T) {
	t.Parallel()

	err := Run(t.Context(), &Options{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrSessionFailed)
}
