package verification

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
)

// Struct field names shared by server and client.
const (
	fieldX               = "x"
	fieldY               = "y"
	fieldZ               = "z"
	fieldHit             = "hit"
	fieldSessionID       = "session_id"
	fieldAnswer          = "answer"
	fieldKind            = "kind"
	fieldAt              = "at"
	fieldPhase           = "phase"
	fieldLabel           = "label"
	fieldTitle           = "title"
	fieldStatus          = "status"
	fieldPosition        = "position"
	fieldText            = "text"
	fieldURL             = "url"
	fieldBusy            = "busy"
	fieldIdentity        = "identity"
	fieldProductName     = "product_name"
	fieldReason          = "reason"
	fieldIdentifyingInfo = "identifying_info"
	fieldRemediationURL  = "remediation_url"
	fieldPrompt          = "prompt"
	fieldVerdict         = "verdict"
	fieldAnchor          = "anchor"
	fieldError           = "error"
	fieldStartedAt       = "started_at"
)

var (
	errSelectionRequired = errors.New("selection is required")
	errFieldRequired     = errors.New("field is required")
	errUnknownPhase      = errors.New("unknown phase")
)

// SelectionToStruct encodes a selection for the Select call.
func SelectionToStruct(selection domain.Selection) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldX: structpb.NewNumberValue(selection.Point.X),
		fieldY: structpb.NewNumberValue(selection.Point.Y),
	}

	if selection.Hit != nil {
		fields[fieldHit] = structpb.NewStructValue(positionToStruct(*selection.Hit))
	}

	return &structpb.Struct{Fields: fields}
}

// SelectionFromStruct decodes a Select request.
func SelectionFromStruct(s *structpb.Struct) (domain.Selection, error) {
	if s == nil {
		return domain.Selection{}, errSelectionRequired
	}

	x, err := requiredNumber(s, fieldX)
	if err != nil {
		return domain.Selection{}, err
	}

	y, err := requiredNumber(s, fieldY)
	if err != nil {
		return domain.Selection{}, err
	}

	selection := domain.Selection{Point: domain.Point{X: x, Y: y}}

	if hit := s.GetFields()[fieldHit].GetStructValue(); hit != nil {
		position := positionFromStruct(hit)
		selection.Hit = &position
	}

	return selection, nil
}

// AnswerToStruct encodes a SubmitAnswer request.
func AnswerToStruct(sessionID, answer string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSessionID: structpb.NewStringValue(sessionID),
		fieldAnswer:    structpb.NewStringValue(answer),
	}}
}

// AnswerFromStruct decodes a SubmitAnswer request.
func AnswerFromStruct(s *structpb.Struct) (sessionID, answer string) {
	return stringField(s, fieldSessionID), stringField(s, fieldAnswer)
}

// SessionIDToStruct encodes the Select response.
func SessionIDToStruct(sessionID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSessionID: structpb.NewStringValue(sessionID),
	}}
}

// SessionIDFromStruct decodes the Select response.
func SessionIDFromStruct(s *structpb.Struct) string {
	return stringField(s, fieldSessionID)
}

// EventToStruct encodes a flow event for the Events stream.
func EventToStruct(event flow.Event) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldKind:      structpb.NewStringValue(string(event.Kind)),
		fieldSessionID: structpb.NewStringValue(event.SessionID),
	}

	if !event.At.IsZero() {
		fields[fieldAt] = structpb.NewStringValue(event.At.UTC().Format(time.RFC3339Nano))
	}

	switch event.Kind {
	case flow.EventPhase:
		fields[fieldPhase] = structpb.NewStringValue(event.Phase.String())
	case flow.EventLabel:
		if event.Label != nil {
			fields[fieldLabel] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
				fieldTitle:    structpb.NewStringValue(event.Label.Title),
				fieldStatus:   structpb.NewStringValue(event.Label.Status),
				fieldPosition: structpb.NewStructValue(positionToStruct(event.Label.Position)),
			}})
		}
	case flow.EventPrompt:
		fields[fieldTitle] = structpb.NewStringValue(event.Title)
		fields[fieldText] = structpb.NewStringValue(event.Text)
	case flow.EventRemediation:
		fields[fieldURL] = structpb.NewStringValue(event.URL)
	case flow.EventBusy:
		fields[fieldBusy] = structpb.NewBoolValue(event.Busy)
	case flow.EventNotice:
		fields[fieldText] = structpb.NewStringValue(event.Text)
	}

	return &structpb.Struct{Fields: fields}
}

// EventFromStruct decodes an Events stream message.
func EventFromStruct(s *structpb.Struct) (flow.Event, error) {
	event := flow.Event{
		Kind:      flow.EventKind(stringField(s, fieldKind)),
		SessionID: stringField(s, fieldSessionID),
		Title:     stringField(s, fieldTitle),
		Text:      stringField(s, fieldText),
		URL:       stringField(s, fieldURL),
		Busy:      s.GetFields()[fieldBusy].GetBoolValue(),
	}

	if at := stringField(s, fieldAt); at != "" {
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return flow.Event{}, fmt.Errorf("parse %s: %w", fieldAt, err)
		}

		event.At = parsed
	}

	if event.Kind == flow.EventPhase {
		phase, ok := domain.ParsePhase(stringField(s, fieldPhase))
		if !ok {
			return flow.Event{}, fmt.Errorf("%w: %q", errUnknownPhase, stringField(s, fieldPhase))
		}

		event.Phase = phase
	}

	if label := s.GetFields()[fieldLabel].GetStructValue(); label != nil {
		event.Label = &flow.Label{
			Title:    stringField(label, fieldTitle),
			Status:   stringField(label, fieldStatus),
			Position: positionFromStruct(label.GetFields()[fieldPosition].GetStructValue()),
		}
	}

	return event, nil
}

// SessionToStruct encodes a session snapshot. A nil session reads as idle.
func SessionToStruct(session *domain.Session) *structpb.Struct {
	if session == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldPhase: structpb.NewStringValue(domain.PhaseIdle.String()),
		}}
	}

	fields := map[string]*structpb.Value{
		fieldSessionID: structpb.NewStringValue(session.ID),
		fieldPhase:     structpb.NewStringValue(session.Phase.String()),
		fieldVerdict:   structpb.NewStringValue(session.Verdict.String()),
		fieldAnchor:    structpb.NewStructValue(positionToStruct(session.Anchor)),
		fieldStartedAt: structpb.NewStringValue(session.StartedAt.UTC().Format(time.RFC3339Nano)),
	}

	if session.Identity != nil {
		fields[fieldIdentity] = structpb.NewStringValue(session.Identity.Name)
	}

	if session.Record != nil {
		fields[fieldProductName] = structpb.NewStringValue(session.Record.ProductName)
		fields[fieldReason] = structpb.NewStringValue(session.Record.Reason)
		fields[fieldIdentifyingInfo] = structpb.NewStringValue(session.Record.IdentifyingInfo)
		fields[fieldRemediationURL] = structpb.NewStringValue(session.Record.RemediationURL)
	}

	if session.Prompt != nil {
		fields[fieldPrompt] = structpb.NewStringValue(session.Prompt.Text)
	}

	if session.UserAnswer != "" {
		fields[fieldAnswer] = structpb.NewStringValue(session.UserAnswer)
	}

	if session.Err != nil {
		fields[fieldError] = structpb.NewStringValue(flow.Notice(session.Err))
	}

	return &structpb.Struct{Fields: fields}
}

// SessionFromStruct decodes a session snapshot. It returns nil for an idle flow.
// The failure cause is carried as its user-facing notice.
func SessionFromStruct(s *structpb.Struct) (*domain.Session, error) {
	phase, ok := domain.ParsePhase(stringField(s, fieldPhase))
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownPhase, stringField(s, fieldPhase))
	}

	id := stringField(s, fieldSessionID)
	if id == "" {
		return nil, nil //nolint:nilnil // Idle flow has no session.
	}

	session := &domain.Session{
		ID:         id,
		Phase:      phase,
		Verdict:    parseVerdict(stringField(s, fieldVerdict)),
		UserAnswer: stringField(s, fieldAnswer),
		Anchor:     positionFromStruct(s.GetFields()[fieldAnchor].GetStructValue()),
	}

	if startedAt := stringField(s, fieldStartedAt); startedAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldStartedAt, err)
		}

		session.StartedAt = parsed
	}

	if name := stringField(s, fieldIdentity); name != "" {
		session.Identity = &domain.ObjectIdentity{Name: name}
	}

	if product := stringField(s, fieldProductName); product != "" {
		session.Record = &domain.RecallRecord{
			ProductName:     product,
			Reason:          stringField(s, fieldReason),
			IdentifyingInfo: stringField(s, fieldIdentifyingInfo),
			RemediationURL:  stringField(s, fieldRemediationURL),
		}
	}

	if prompt := stringField(s, fieldPrompt); prompt != "" {
		session.Prompt = &domain.DisambiguationPrompt{Text: prompt}
	}

	if notice := stringField(s, fieldError); notice != "" {
		session.Err = errors.New(notice) //nolint:err113 // Remote failure text.
	}

	return session, nil
}

func parseVerdict(s string) domain.Verdict {
	switch s {
	case domain.VerdictConfirmed.String():
		return domain.VerdictConfirmed
	case domain.VerdictDenied.String():
		return domain.VerdictDenied
	default:
		return domain.VerdictPending
	}
}

func positionToStruct(position domain.WorldPosition) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldX: structpb.NewNumberValue(float64(position.X)),
		fieldY: structpb.NewNumberValue(float64(position.Y)),
		fieldZ: structpb.NewNumberValue(float64(position.Z)),
	}}
}

func positionFromStruct(s *structpb.Struct) domain.WorldPosition {
	fields := s.GetFields()

	return domain.WorldPosition{
		X: float32(fields[fieldX].GetNumberValue()),
		Y: float32(fields[fieldY].GetNumberValue()),
		Z: float32(fields[fieldZ].GetNumberValue()),
	}
}

func requiredNumber(s *structpb.Struct, name string) (float64, error) {
	value, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", errFieldRequired, name)
	}

	if _, isNumber := value.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return 0, fmt.Errorf("%w: %s must be a number", errFieldRequired, name)
	}

	return value.GetNumberValue(), nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}
