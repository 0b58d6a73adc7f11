// Package recall contains core domain types for the recall verification pipeline.
//
// It defines the object identity produced by the vision model, the recall record
// returned by the registry, the clarifying prompt, the verdict and the Session
// aggregate owned by the verification flow, together with the sentinel errors every
// stage reports.
package recall
