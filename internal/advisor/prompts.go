package advisor

import (
	"fmt"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// notSpecified replaces missing record fields in instructions.
const notSpecified = "Not specified"

// promptInstruction asks for the clarifying question.
const promptInstruction = "%s has been recalled for the reason: %s, the piece of information that identifies " +
	"this recall is %s. Create a prompt for an user to provide the product information to see if their " +
	"product is recalled via keyboard. One sentence only"

// adjudicationInstruction asks for the yes/no verdict.
const adjudicationInstruction = "%s has been recalled for the reason: %s, the piece of information that " +
	"identifies this recall is %s. The user responded to the prompt %s with: %s. Is the product that the " +
	"user owns part of the recall? (yes or no), if the user's response does not make sense return no."

// BuildPromptInstruction renders the instruction for BuildPrompt.
// Record fields are embedded verbatim.
func BuildPromptInstruction(record *domain.RecallRecord, identity *domain.ObjectIdentity) string {
	return fmt.Sprintf(promptInstruction,
		identity.Name,
		orNotSpecified(record.Reason),
		orNotSpecified(record.IdentifyingInfo),
	)
}

// AdjudicationInstruction renders the instruction for Adjudicate.
func AdjudicationInstruction(
	record *domain.RecallRecord,
	identity *domain.ObjectIdentity,
	prompt *domain.DisambiguationPrompt,
	answer string,
) string {
	promptText := ""
	if prompt != nil {
		promptText = prompt.Text
	}

	return fmt.Sprintf(adjudicationInstruction,
		identity.Name,
		orNotSpecified(record.Reason),
		orNotSpecified(record.IdentifyingInfo),
		promptText,
		answer,
	)
}

func orNotSpecified(s string) string {
	if s == "" {
		return notSpecified
	}

	return s
}
