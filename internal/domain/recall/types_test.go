package recall

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSessionClone verifies that Clone deep-copies the nested pointers.
func TestSessionClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Session)(nil).Clone())

	s := &Session{
		ID:       "s-1",
		Phase:    PhaseAwaitingDisambiguation,
		Identity: &ObjectIdentity{Name: "Acme - Blender"},
		Record: &RecallRecord{
			ProductName:    "Acme - Blender",
			Reason:         "fire risk",
			RemediationURL: "https://recall.example/acme",
		},
		Prompt: &DisambiguationPrompt{Text: "Type the serial number."},
		Anchor: WorldPosition{X: 1, Y: 2, Z: 3},
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s.Identity, c.Identity)
	require.NotSame(t, s.Record, c.Record)
	require.NotSame(t, s.Prompt, c.Prompt)
}

// TestPhaseNames checks the wire names round-trip and the terminal classification.
func TestPhaseNames(t *testing.T) {
	t.Parallel()

	for phase := PhaseIdle; phase <= PhaseFailed; phase++ {
		parsed, ok := ParsePhase(phase.String())
		require.True(t, ok)
		require.Equal(t, phase, parsed)
	}

	_, ok := ParsePhase("bogus")
	require.False(t, ok)

	require.True(t, PhaseNotRecalled.IsTerminal())
	require.True(t, PhaseFailed.IsTerminal())
	require.False(t, PhaseAwaitingDisambiguation.IsTerminal())
	require.Equal(t, "phase(42)", Phase(42).String())
}

// TestVerdictString covers the verdict names.
func TestVerdictString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pending", VerdictPending.String())
	require.Equal(t, "confirmed", VerdictConfirmed.String())
	require.Equal(t, "denied", VerdictDenied.String())
}
