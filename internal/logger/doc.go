// Package logger wraps zap with a global sugared logger and context helpers.
//
// Services attach a named logger to their context (WithName, WithKV) and log
// through the package-level helpers (InfoKV, WarnKV, ...), so every message
// written while a session runs carries the binary name and the session id.
package logger
