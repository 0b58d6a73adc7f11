// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper with timeouts, the wiring
// that turns settings into a ready verification flow, console interaction
// for the command line binaries and detection of the current system actor
// (user@host) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
