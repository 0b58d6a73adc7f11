// Package flow runs the recall verification state machine.
//
// A Flow owns at most one Session at a time. Select captures the frame and
// starts a goroutine that walks the session through identification, registry
// lookup, the clarifying question and adjudication, publishing an Event to the
// Sink whenever the presentation layer has something to show. Selections that
// arrive while a session is active are rejected with ErrBusy.
//
// Every emission is checked against the active session under the flow lock, so
// once Cancel returns nothing more is published for the cancelled session even
// if a backend call completes afterwards.
package flow
