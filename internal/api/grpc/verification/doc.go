// Package verification implements the gRPC transport of the verification flow.
//
// The service is described in api/recall/v1/verification.proto. Payloads are
// protobuf well-known types, so the service descriptor and the client stub
// are written by hand instead of generated. The package adapts domain types
// to structpb values and exposes a server that calls into a provided
// business-service interface.
package verification
