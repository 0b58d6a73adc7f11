// Package version exposes build metadata for the recall binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Full is printed by the `version` subcommand and UserAgent tags
// outgoing registry requests.
package version
