package advisor

import (
	"strings"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// Classifier maps a free-text adjudication reply to a verdict.
// VerdictPending means the reply was indeterminate.
type Classifier interface {
	Classify(reply string) domain.Verdict
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(reply string) domain.Verdict

// Classify implements Classifier.
func (f ClassifierFunc) Classify(reply string) domain.Verdict {
	return f(reply)
}

// SubstringClassifier looks for YES, then NO, anywhere in the reply, ignoring case.
//
// This is loose: "I do NOT know" reads as NO and "not sure, maybe yes" as YES.
type SubstringClassifier struct{}

// Classify implements Classifier.
func (SubstringClassifier) Classify(reply string) domain.Verdict {
	upper := strings.ToUpper(reply)

	switch {
	case strings.Contains(upper, "YES"):
		return domain.VerdictConfirmed
	case strings.Contains(upper, "NO"):
		return domain.VerdictDenied
	default:
		return domain.VerdictPending
	}
}
