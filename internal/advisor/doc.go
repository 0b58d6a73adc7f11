// Package advisor asks the model to disambiguate a recall match.
//
// BuildPrompt produces the one-sentence question shown to the user and
// Adjudicate turns the user's answer into a verdict. Reply classification is
// delegated to a Classifier so a stricter contract can replace the substring
// check without touching the flow.
package advisor
