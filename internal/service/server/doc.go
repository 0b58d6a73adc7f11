// Package server runs recall-server: the verification flow behind a gRPC API
// for remote camera clients, plus an optional HTTP endpoint with metrics and
// a health check.
package server
