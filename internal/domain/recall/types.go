package recall

import (
	"strconv"
	"time"
)

// Label statuses rendered next to the object name.
const (
	StatusRecalled    = "Recalled!"
	StatusNotRecalled = "Not Recalled"
)

// ObjectIdentity is the object name resolved by the vision model.
type ObjectIdentity struct {
	// Name is the "Brand - Object Name" string and the registry lookup key.
	Name string
}

// RecallRecord describes one recall campaign from the registry.
type RecallRecord struct {
	// ProductName is matched exactly against ObjectIdentity.Name.
	ProductName string
	// Reason explains why the product was recalled.
	Reason string
	// IdentifyingInfo tells which units are affected (serial range, batch, date...).
	IdentifyingInfo string
	// RemediationURL points to the manufacturer instructions, empty when unknown.
	RemediationURL string
}

// Clone returns a copy of the record.
func (r *RecallRecord) Clone() *RecallRecord {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// DisambiguationPrompt is the clarifying question shown to the user.
type DisambiguationPrompt struct {
	Text string
}

// Verdict is the adjudicated outcome of a session.
type Verdict int

// Verdict values.
const (
	VerdictPending Verdict = iota
	VerdictConfirmed
	VerdictDenied
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "pending"
	case VerdictConfirmed:
		return "confirmed"
	case VerdictDenied:
		return "denied"
	default:
		return "verdict(" + strconv.Itoa(int(v)) + ")"
	}
}

// Phase is a state of the verification flow.
type Phase int

// Phase values.
const (
	PhaseIdle Phase = iota
	PhaseCapturing
	PhaseIdentifying
	PhaseLookingUp
	PhaseNotRecalled
	PhaseAwaitingDisambiguation
	PhaseAdjudicating
	PhaseConfirmed
	PhaseDenied
	PhaseFailed
)

// phaseNames maps phases to their wire names.
//
//nolint:gochecknoglobals // Read-only lookup table.
var phaseNames = map[Phase]string{
	PhaseIdle:                   "idle",
	PhaseCapturing:              "capturing",
	PhaseIdentifying:            "identifying",
	PhaseLookingUp:              "looking_up",
	PhaseNotRecalled:            "not_recalled",
	PhaseAwaitingDisambiguation: "awaiting_disambiguation",
	PhaseAdjudicating:           "adjudicating",
	PhaseConfirmed:              "confirmed",
	PhaseDenied:                 "denied",
	PhaseFailed:                 "failed",
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}

	return "phase(" + strconv.Itoa(int(p)) + ")"
}

// ParsePhase converts a wire name back to a Phase.
func ParsePhase(s string) (Phase, bool) {
	for phase, name := range phaseNames {
		if name == s {
			return phase, true
		}
	}

	return PhaseIdle, false
}

// IsTerminal reports whether the phase ends a session.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseNotRecalled, PhaseConfirmed, PhaseDenied, PhaseFailed:
		return true
	default:
		return false
	}
}

// Point is a selection in normalized viewport coordinates, both axes in [0, 1].
type Point struct {
	X float64
	Y float64
}

// WorldPosition is a point in the 3D scene.
type WorldPosition struct {
	X float32
	Y float32
	Z float32
}

// Selection is the user's tap on the camera view.
type Selection struct {
	// Point is where the user tapped.
	Point Point
	// Hit is the surface intersection already computed by the device, if any.
	Hit *WorldPosition
}

// Session is one end-to-end verification attempt.
type Session struct {
	// ID identifies the session in events and answer submissions.
	ID string
	// Phase is the current state of the flow.
	Phase Phase
	// Identity is set once the object has been identified.
	Identity *ObjectIdentity
	// Record is set once the registry returned a match.
	Record *RecallRecord
	// Prompt is set once the clarifying question was generated.
	Prompt *DisambiguationPrompt
	// UserAnswer is the free-text answer to Prompt.
	UserAnswer string
	// Verdict stays VerdictPending until a Record is set and adjudicated.
	Verdict Verdict
	// Anchor is captured at selection time and never changes.
	Anchor WorldPosition
	// Err is the failure cause when Phase is PhaseFailed.
	Err error
	// StartedAt is when the selection arrived.
	StartedAt time.Time
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.Record = s.Record.Clone()

	if s.Identity != nil {
		identity := *s.Identity
		cloned.Identity = &identity
	}

	if s.Prompt != nil {
		prompt := *s.Prompt
		cloned.Prompt = &prompt
	}

	return &cloned
}
