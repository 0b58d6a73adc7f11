package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/inference"
	"github.com/oshokin/recall-lens/internal/logger"
)

var (
	// errRecordRequired is returned when the record or identity is missing.
	errRecordRequired = errors.New("recall record and identity must be provided")
	// errEmptyPrompt is returned when the model produced no question.
	errEmptyPrompt = errors.New("model returned an empty prompt")
)

// Advisor generates clarifying questions and adjudicates answers.
type Advisor struct {
	// backend is the shared text model client.
	backend inference.Backend
	// classifier turns adjudication replies into verdicts.
	classifier Classifier
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithClassifier replaces the default SubstringClassifier.
func WithClassifier(classifier Classifier) Option {
	return func(a *Advisor) {
		if classifier != nil {
			a.classifier = classifier
		}
	}
}

// New creates an advisor on top of a model backend.
func New(backend inference.Backend, opts ...Option) *Advisor {
	a := &Advisor{
		backend:    backend,
		classifier: SubstringClassifier{},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// BuildPrompt asks the model for one sentence telling the user what to provide.
func (a *Advisor) BuildPrompt(
	ctx context.Context,
	record *domain.RecallRecord,
	identity *domain.ObjectIdentity,
) (*domain.DisambiguationPrompt, error) {
	if record == nil || identity == nil {
		return nil, errRecordRequired
	}

	text, err := a.backend.Generate(ctx, &inference.Request{
		Instruction: BuildPromptInstruction(record, identity),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAdvisorBackend, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrAdvisorBackend, errEmptyPrompt)
	}

	return &domain.DisambiguationPrompt{Text: text}, nil
}

// Adjudicate asks the model whether the user's unit is part of the recall.
// It returns VerdictPending when the reply is indeterminate.
func (a *Advisor) Adjudicate(
	ctx context.Context,
	record *domain.RecallRecord,
	identity *domain.ObjectIdentity,
	prompt *domain.DisambiguationPrompt,
	answer string,
) (domain.Verdict, error) {
	if record == nil || identity == nil {
		return domain.VerdictPending, errRecordRequired
	}

	reply, err := a.backend.Generate(ctx, &inference.Request{
		Instruction: AdjudicationInstruction(record, identity, prompt, answer),
	})
	if err != nil {
		return domain.VerdictPending, fmt.Errorf("%w: %w", domain.ErrAdvisorBackend, err)
	}

	verdict := a.classifier.Classify(reply)
	logger.DebugKV(ctx, "Adjudication reply classified", "reply", reply, "verdict", verdict.String())

	return verdict, nil
}
