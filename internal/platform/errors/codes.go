// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Format errors
	CodeInvalidFormat Code = "INVALID_FORMAT"

	// Input errors
	CodeInvalidPointInput Code = "INVALID_POINT_INPUT"
	CodeInvalidGameInput  Code = "INVALID_GAME_INPUT"
	CodeInvalidSetInput   Code = "INVALID_SET_INPUT"

	// Match lifecycle errors
	CodeMatchCompleted  Code = "MATCH_COMPLETED"
	CodeSegmentNotTimed Code = "SEGMENT_NOT_TIMED"
	CodeSegmentTied     Code = "SEGMENT_TIED"

	// Lineup errors
	CodeInvalidLineup       Code = "INVALID_LINEUP"
	CodeInvalidSubstitution Code = "INVALID_SUBSTITUTION"

	// History errors
	CodeUndoUnderflow Code = "UNDO_UNDERFLOW"
	CodeRedoUnderflow Code = "REDO_UNDERFLOW"

	// State errors
	CodeStateDeserialization Code = "STATE_DESERIALIZATION_ERROR"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidFormat,
		CodeInvalidPointInput,
		CodeInvalidGameInput,
		CodeInvalidSetInput,
		CodeInvalidLineup,
		CodeInvalidSubstitution,
		CodeStateDeserialization:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeMatchCompleted,
		CodeSegmentNotTimed,
		CodeSegmentTied,
		CodeUndoUnderflow,
		CodeRedoUnderflow:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
