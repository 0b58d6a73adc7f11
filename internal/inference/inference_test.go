package inference

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// TestMock_Generate covers the three canned answers and cancellation.
func TestMock_Generate(t *testing.T) {
	t.Parallel()

	m := NewMock(`Acme - "Turbo" Blender`)
	ctx := context.Background()

	text, err := m.Generate(ctx, &Request{Instruction: "identify", Image: &Image{Data: []byte{1}}})
	require.NoError(t, err)
	require.Contains(t, text, `"objectName":"Acme - \"Turbo\" Blender"`)

	text, err = m.Generate(ctx, &Request{Instruction: "Create a prompt for an user"})
	require.NoError(t, err)
	require.NotEmpty(t, text)

	text, err = m.Generate(ctx, &Request{Instruction: "Is the product part of the recall?"})
	require.NoError(t, err)
	require.Equal(t, "NO", text)

	_, err = m.Generate(ctx, nil)
	require.ErrorIs(t, err, errRequestRequired)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = m.Generate(canceled, &Request{})
	require.ErrorIs(t, err, context.Canceled)
}

// TestMock_GenerateEscapesControlCharacters ensures any object name round-trips as valid JSON.
func TestMock_GenerateEscapesControlCharacters(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"Acme - Bell\a",
		"Acme - Null\x00Byte",
		"Acme - Tab\tand\nNewline",
		"Acme - <Kettle> & Co",
	} {
		text, err := NewMock(name).Generate(t.Context(), &Request{Instruction: "identify", Image: &Image{Data: []byte{1}}})
		require.NoError(t, err)

		payload := strings.TrimSuffix(strings.TrimPrefix(text, "```json\n"), "\n```")
		require.True(t, json.Valid([]byte(payload)), payload)
		require.Equal(t, name, gjson.Get(payload, "objectName").String())
	}
}

// TestConstructors_RequireAPIKey ensures hosted providers refuse to start without credentials.
func TestConstructors_RequireAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(context.Background(), GeminiConfig{Model: "gemini-1.5-pro-latest"})
	require.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewOpenAI(OpenAIConfig{Model: "gpt-4o-mini"})
	require.ErrorIs(t, err, errAPIKeyRequired)

	backend, err := NewOpenAI(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: "http://127.0.0.1:1/v1"})
	require.NoError(t, err)
	require.NotNil(t, backend)
}

// TestDataURL checks image inlining for the OpenAI backend.
func TestDataURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "data:image/png;base64,AQI=", dataURL(&Image{Data: []byte{1, 2}, MIMEType: "image/png"}))
}
