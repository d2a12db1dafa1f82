// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeStateRead    Code = "STATE_READ_FAILED"

	// Caller identity errors
	CodeCallerRequired     Code = "CALLER_REQUIRED"
	CodeCallerGrantInvalid Code = "CALLER_GRANT_INVALID"
	CodeCallerGrantExpired Code = "CALLER_GRANT_EXPIRED"

	// Command errors
	CodeCommandTypeUnknown      Code = "COMMAND_TYPE_UNKNOWN"
	CodeCommandPayloadInvalid   Code = "COMMAND_PAYLOAD_INVALID"
	CodeInvalidAmount           Code = "INVALID_AMOUNT"
	CodePaymentOptionIncomplete Code = "PAYMENT_OPTION_INCOMPLETE"

	// Query errors
	CodeFilterInvalid    Code = "FILTER_INVALID"
	CodePageTokenInvalid Code = "PAGE_TOKEN_INVALID"

	// Storage errors
	CodeNotFound     Code = "NOT_FOUND"
	CodeStorageWrite Code = "STORAGE_WRITE_FAILED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeCommandTypeUnknown,
		CodeCommandPayloadInvalid,
		CodeInvalidAmount,
		CodePaymentOptionIncomplete,
		CodeFilterInvalid,
		CodePageTokenInvalid:
		return codes.InvalidArgument

	// Unauthenticated - the caller could not be identified
	case CodeCallerRequired,
		CodeCallerGrantInvalid,
		CodeCallerGrantExpired:
		return codes.Unauthenticated

	// PermissionDenied - identified caller lacks authority
	case CodeUnauthorized:
		return codes.PermissionDenied

	case CodeNotFound:
		return codes.NotFound

	// Unavailable - the store rejected or could not take the write
	case CodeStorageWrite:
		return codes.Unavailable

	// Internal - state reads and anything unclassified
	default:
		return codes.Internal
	}
}
