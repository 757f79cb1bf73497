// Package assertions implements the step assertions: the expected status
// code, boolean check expressions and JSON schema validation of the decoded
// response body.
//
// Each failure is a typed error carrying the expected and actual values so
// reporters can show them. Use errors.Is with ErrStatusMismatch,
// ErrCheckFailed or ErrSchema to classify a failure.
package assertions
