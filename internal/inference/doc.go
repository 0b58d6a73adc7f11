// Package inference adapts model providers to one Backend interface.
//
// A Backend receives an instruction and an optional image and answers with
// free text. Clients are constructed once by the composition root and shared
// by the identifier and the advisor.
package inference
