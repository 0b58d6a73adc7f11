package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oshokin/recall-lens/internal/capture"
	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/metrics"
)

var (
	// ErrBusy is returned by Select while a session is active.
	ErrBusy = errors.New("verification session already in progress")
	// ErrNotAwaitingAnswer is returned by SubmitAnswer outside of the clarifying question.
	ErrNotAwaitingAnswer = errors.New("no clarifying question is awaiting an answer")
	// ErrUnknownSession is returned when an answer targets a session that is not active.
	ErrUnknownSession = errors.New("unknown verification session")
)

// Session outcomes reported to metrics.
const (
	OutcomeNotRecalled = "not_recalled"
	OutcomeConfirmed   = "confirmed"
	OutcomeDenied      = "denied"
	OutcomeFailed      = "failed"
	OutcomeCancelled   = "cancelled"
)

type (
	// Identifier names the object visible in a frame.
	Identifier interface {
		Identify(ctx context.Context, frame *capture.Frame) (*domain.ObjectIdentity, error)
	}

	// Registry finds the recall record of an identified object.
	Registry interface {
		Lookup(ctx context.Context, identity *domain.ObjectIdentity) (*domain.RecallRecord, error)
	}

	// Advisor generates the clarifying question and adjudicates the answer.
	Advisor interface {
		BuildPrompt(
			ctx context.Context,
			record *domain.RecallRecord,
			identity *domain.ObjectIdentity,
		) (*domain.DisambiguationPrompt, error)
		Adjudicate(
			ctx context.Context,
			record *domain.RecallRecord,
			identity *domain.ObjectIdentity,
			prompt *domain.DisambiguationPrompt,
			answer string,
		) (domain.Verdict, error)
	}
)

// tracerName identifies the spans of the verification flow.
const tracerName = "github.com/oshokin/recall-lens/internal/flow"

// Option configures a Flow.
type Option func(*Flow)

// WithMetrics records session outcomes and backend latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Flow) {
		f.metrics = m
	}
}

// WithAnswerTimeout fails the session when no answer arrives within timeout.
// Zero waits forever.
func WithAnswerTimeout(timeout time.Duration) Option {
	return func(f *Flow) {
		f.answerTimeout = timeout
	}
}

// WithTracerProvider records session and stage spans with provider
// instead of the global one.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(f *Flow) {
		f.tracer = provider.Tracer(tracerName)
	}
}

// WithRetry enables bounded retries of identification and registry lookups.
func WithRetry(policy RetryPolicy) Option {
	return func(f *Flow) {
		f.retryPolicy = policy
	}
}

// Flow is the verification state machine.
type Flow struct {
	source     capture.Source
	identifier Identifier
	registry   Registry
	advisor    Advisor
	sink       Sink

	metrics       *metrics.Metrics
	answerTimeout time.Duration
	retryPolicy   RetryPolicy
	tracer        trace.Tracer

	// active is the running session, nil while idle.
	active *run
	// mu protects active and the session it owns.
	mu sync.Mutex
}

// run is the mutable state of one session.
type run struct {
	session *domain.Session
	ctx     context.Context //nolint:containedctx // Owned by the session goroutine, outlives Select.
	cancel  context.CancelFunc
	span    trace.Span
	answers chan string
}

// New creates an idle flow.
func New(
	source capture.Source,
	identifier Identifier,
	registry Registry,
	advisor Advisor,
	sink Sink,
	opts ...Option,
) *Flow {
	f := &Flow{
		source:     source,
		identifier: identifier,
		registry:   registry,
		advisor:    advisor,
		sink:       sink,
		tracer:     otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Select starts a session for the tapped point and returns its id.
// The frame and anchor are captured before Select returns; everything else
// happens in the background and is reported through the sink.
func (f *Flow) Select(ctx context.Context, selection domain.Selection) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active != nil {
		f.metrics.IncrementSelectionsIgnored()
		logger.DebugKV(ctx, "Selection ignored while busy", "session_id", f.active.session.ID)

		return "", ErrBusy
	}

	id := uuid.NewString()
	runCtx, span := f.tracer.Start(
		logger.WithKV(context.WithoutCancel(ctx), "session_id", id),
		"recall.session",
		trace.WithAttributes(attribute.String("session.id", id)))
	runCtx, cancel := context.WithCancel(runCtx)

	r := &run{
		session: &domain.Session{
			ID:        id,
			Phase:     domain.PhaseCapturing,
			Verdict:   domain.VerdictPending,
			StartedAt: time.Now(),
		},
		ctx:     runCtx,
		cancel:  cancel,
		span:    span,
		answers: make(chan string, 1),
	}

	f.active = r
	logger.InfoKV(runCtx, "Verification session started", "x", selection.Point.X, "y", selection.Point.Y)
	f.publishLocked(r, phaseEvent(domain.PhaseCapturing), busyEvent(true))

	frame, position, err := f.source.Capture(selection)
	if err != nil {
		f.failLocked(r, fmt.Errorf("capture: %w", err))

		return id, err
	}

	r.session.Anchor = position

	go f.drive(r, frame)

	return id, nil
}

// SubmitAnswer delivers the user's answer to the clarifying question.
// An empty sessionID targets whichever session is active.
func (f *Flow) SubmitAnswer(ctx context.Context, sessionID, answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.active
	if r == nil {
		return ErrNotAwaitingAnswer
	}

	if sessionID != "" && sessionID != r.session.ID {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	if r.session.Phase != domain.PhaseAwaitingDisambiguation || r.session.Prompt == nil {
		return ErrNotAwaitingAnswer
	}

	r.session.UserAnswer = answer
	r.session.Phase = domain.PhaseAdjudicating
	r.answers <- answer

	logger.DebugKV(ctx, "Answer received", "session_id", r.session.ID)
	f.publishLocked(r, phaseEvent(domain.PhaseAdjudicating), busyEvent(true))

	return nil
}

// Cancel aborts the active session and returns to idle.
// An empty sessionID targets whichever session is active; any other id
// cancels only that session. It reports whether a session was cancelled.
func (f *Flow) Cancel(ctx context.Context, sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.active
	if r == nil {
		return false
	}

	if sessionID != "" && sessionID != r.session.ID {
		logger.DebugKV(ctx, "Cancel ignored for inactive session", "session_id", sessionID)

		return false
	}

	f.active = nil
	r.cancel()
	endSession(r.span, OutcomeCancelled, nil)

	f.metrics.ObserveSession(OutcomeCancelled)
	logger.InfoKV(ctx, "Verification session cancelled", "session_id", r.session.ID, "phase", r.session.Phase.String())
	f.emit(ctx, r.session.ID, busyEvent(false), phaseEvent(domain.PhaseIdle))

	return true
}

// Session returns a copy of the active session, or nil while idle.
func (f *Flow) Session() *domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active == nil {
		return nil
	}

	return f.active.session.Clone()
}

// Phase returns the current phase.
func (f *Flow) Phase() domain.Phase {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active == nil {
		return domain.PhaseIdle
	}

	return f.active.session.Phase
}

// drive runs the awaited chain of one session.
func (f *Flow) drive(r *run, frame *capture.Frame) {
	ctx := r.ctx

	if !f.advance(r, func(s *domain.Session) []Event {
		s.Phase = domain.PhaseIdentifying

		return []Event{phaseEvent(s.Phase)}
	}) {
		return
	}

	identity, err := f.identify(ctx, frame)
	if err != nil {
		f.fail(r, err)

		return
	}

	if !f.advance(r, func(s *domain.Session) []Event {
		s.Identity = identity
		s.Phase = domain.PhaseLookingUp

		return []Event{phaseEvent(s.Phase)}
	}) {
		return
	}

	record, err := f.lookup(ctx, identity)
	if err != nil {
		f.fail(r, err)

		return
	}

	if record == nil {
		f.finish(r, domain.PhaseNotRecalled, OutcomeNotRecalled, nil, func(s *domain.Session) []Event {
			return []Event{labelEvent(identity.Name, domain.StatusNotRecalled, s.Anchor)}
		})

		return
	}

	if !f.advance(r, func(s *domain.Session) []Event {
		s.Record = record

		return nil
	}) {
		return
	}

	prompt, err := f.buildPrompt(ctx, record, identity)
	if err != nil {
		f.fail(r, err)

		return
	}

	if !f.advance(r, func(s *domain.Session) []Event {
		s.Prompt = prompt
		s.Phase = domain.PhaseAwaitingDisambiguation

		return []Event{
			phaseEvent(s.Phase),
			{Kind: EventPrompt, Title: identity.Name, Text: prompt.Text},
			busyEvent(false),
		}
	}) {
		return
	}

	answer, err := f.awaitAnswer(r)
	if err != nil {
		f.fail(r, err)

		return
	}

	verdict, err := f.adjudicate(ctx, record, identity, prompt, answer)
	if err != nil {
		f.fail(r, err)

		return
	}

	if verdict == domain.VerdictPending {
		f.metrics.IncrementIndeterminate()
		logger.WarnKV(ctx, "Adjudication reply was indeterminate, treating as denied", "product", record.ProductName)
	}

	if verdict == domain.VerdictConfirmed {
		f.finish(r, domain.PhaseConfirmed, OutcomeConfirmed, nil, func(s *domain.Session) []Event {
			s.Verdict = domain.VerdictConfirmed

			events := []Event{labelEvent(identity.Name, domain.StatusRecalled, s.Anchor)}
			if record.RemediationURL != "" {
				events = append(events, Event{Kind: EventRemediation, URL: record.RemediationURL})
			}

			return events
		})

		return
	}

	// An indeterminate reply leaves the recorded verdict pending.
	f.finish(r, domain.PhaseDenied, OutcomeDenied, nil, func(s *domain.Session) []Event {
		s.Verdict = verdict

		return []Event{labelEvent(identity.Name, domain.StatusNotRecalled, s.Anchor)}
	})
}

func (f *Flow) identify(ctx context.Context, frame *capture.Frame) (identity *domain.ObjectIdentity, err error) {
	defer f.metrics.ObserveBackendCall(metrics.OperationIdentify, time.Now())

	ctx, span := f.startStage(ctx, metrics.OperationIdentify)
	defer func() { endStage(span, err) }()

	err = f.retry(ctx, metrics.OperationIdentify, domain.ErrIdentifyBackend, func() error {
		var callErr error

		identity, callErr = f.identifier.Identify(ctx, frame)

		return callErr
	})
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Object identified", "name", identity.Name)

	return identity, nil
}

func (f *Flow) lookup(ctx context.Context, identity *domain.ObjectIdentity) (record *domain.RecallRecord, err error) {
	defer f.metrics.ObserveBackendCall(metrics.OperationLookup, time.Now())

	ctx, span := f.startStage(ctx, metrics.OperationLookup)
	defer func() { endStage(span, err) }()

	err = f.retry(ctx, metrics.OperationLookup, domain.ErrRegistryUnavailable, func() error {
		var callErr error

		record, callErr = f.registry.Lookup(ctx, identity)

		return callErr
	})

	return record, err
}

func (f *Flow) buildPrompt(
	ctx context.Context,
	record *domain.RecallRecord,
	identity *domain.ObjectIdentity,
) (prompt *domain.DisambiguationPrompt, err error) {
	defer f.metrics.ObserveBackendCall(metrics.OperationBuildPrompt, time.Now())

	ctx, span := f.startStage(ctx, metrics.OperationBuildPrompt)
	defer func() { endStage(span, err) }()

	return f.advisor.BuildPrompt(ctx, record, identity)
}

func (f *Flow) adjudicate(
	ctx context.Context,
	record *domain.RecallRecord,
	identity *domain.ObjectIdentity,
	prompt *domain.DisambiguationPrompt,
	answer string,
) (verdict domain.Verdict, err error) {
	defer f.metrics.ObserveBackendCall(metrics.OperationAdjudicate, time.Now())

	ctx, span := f.startStage(ctx, metrics.OperationAdjudicate)
	defer func() {
		span.SetAttributes(attribute.String("recall.verdict", verdict.String()))
		endStage(span, err)
	}()

	return f.advisor.Adjudicate(ctx, record, identity, prompt, answer)
}

func (f *Flow) startStage(ctx context.Context, operation string) (context.Context, trace.Span) {
	return f.tracer.Start(ctx, "recall."+operation)
}

func endStage(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// endSession closes the session span with its outcome.
func endSession(span trace.Span, outcome string, cause error) {
	span.SetAttributes(attribute.String("recall.outcome", outcome))
	endStage(span, cause)
}

// awaitAnswer blocks until SubmitAnswer, cancellation or the answer timeout.
// An answer accepted by SubmitAnswer always wins over a timer firing at the same time.
func (f *Flow) awaitAnswer(r *run) (string, error) {
	var timeout <-chan time.Time

	if f.answerTimeout > 0 {
		timer := time.NewTimer(f.answerTimeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case answer := <-r.answers:
		return answer, nil
	case <-r.ctx.Done():
		return "", r.ctx.Err()
	case <-timeout:
		return f.expireAnswer(r)
	}
}

// expireAnswer fails the session on timeout unless an answer was accepted meanwhile.
func (f *Flow) expireAnswer(r *run) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case answer := <-r.answers:
		return answer, nil
	default:
	}

	f.failLocked(r, domain.ErrAnswerTimeout)

	return "", domain.ErrAnswerTimeout
}

// advance mutates the session and publishes the returned events if r is still active.
func (f *Flow) advance(r *run, mutate func(s *domain.Session) []Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active != r {
		return false
	}

	events := mutate(r.session)
	if len(events) > 0 {
		logger.DebugKV(r.ctx, "Session advanced", "phase", r.session.Phase.String())
	}

	f.publishLocked(r, events...)

	return true
}

// finish moves r into a terminal phase, publishes its result and returns to idle.
func (f *Flow) finish(r *run, phase domain.Phase, outcome string, cause error, mutate func(s *domain.Session) []Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.finishLocked(r, phase, outcome, cause, mutate)
}

func (f *Flow) finishLocked(
	r *run,
	phase domain.Phase,
	outcome string,
	cause error,
	mutate func(s *domain.Session) []Event,
) {
	if f.active != r {
		return
	}

	r.session.Phase = phase
	r.session.Err = cause

	events := []Event{phaseEvent(phase)}
	if mutate != nil {
		events = append(events, mutate(r.session)...)
	}

	events = append(events, busyEvent(false), phaseEvent(domain.PhaseIdle))
	f.publishLocked(r, events...)

	f.active = nil
	r.cancel()
	endSession(r.span, outcome, cause)

	f.metrics.ObserveSession(outcome)
	logger.InfoKV(r.ctx, "Verification session finished",
		"outcome", outcome,
		"verdict", r.session.Verdict.String(),
		"elapsed", time.Since(r.session.StartedAt))
}

func (f *Flow) fail(r *run, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failLocked(r, err)
}

func (f *Flow) failLocked(r *run, err error) {
	if f.active != r {
		return
	}

	logger.WarnKV(r.ctx, "Verification session failed", "phase", r.session.Phase.String(), "error", err)

	f.finishLocked(r, domain.PhaseFailed, OutcomeFailed, err, func(*domain.Session) []Event {
		return []Event{{Kind: EventNotice, Text: Notice(err)}}
	})
}

func (f *Flow) publishLocked(r *run, events ...Event) {
	f.emit(r.ctx, r.session.ID, events...)
}

func (f *Flow) emit(ctx context.Context, sessionID string, events ...Event) {
	if f.sink == nil {
		return
	}

	now := time.Now()

	for _, event := range events {
		event.SessionID = sessionID
		event.At = now

		f.sink.Publish(ctx, event)
	}
}

// Notice returns the neutral message shown for a failed session.
func Notice(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActiveFrame):
		return "The camera is not ready yet. Try again in a moment."
	case errors.Is(err, domain.ErrNoSurfaceHit):
		return "Tap on a detected surface to place the result."
	case errors.Is(err, domain.ErrIdentifyBackend),
		errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, domain.ErrEmptyResponse):
		return "Could not identify the object. Tap it to try again."
	case errors.Is(err, domain.ErrRegistryUnavailable):
		return "The recall registry is unavailable right now. Try again later."
	case errors.Is(err, domain.ErrAdvisorBackend):
		return "Could not check the recall details right now. Try again."
	case errors.Is(err, domain.ErrAnswerTimeout):
		return "No answer was given. Tap the object to start again."
	default:
		return "Something went wrong. Try again."
	}
}
