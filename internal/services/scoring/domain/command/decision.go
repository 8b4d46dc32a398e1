package command

import (
	"errors"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
)

const (
	// RejectionCodePayloadDecodeFailed is used when a command payload is not valid JSON.
	RejectionCodePayloadDecodeFailed = "PAYLOAD_DECODE_FAILED"
	// RejectionCodeCommandTypeUnsupported is used when no decider handles the command.
	RejectionCodeCommandTypeUnsupported = "COMMAND_TYPE_UNSUPPORTED"
)

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.Event
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
	// Metadata carries values for user-facing message templates.
	Metadata map[string]string
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.Event) Decision {
	return Decision{Events: append([]event.Event(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}

// Validate ensures a decision either emits events or rejects, never both and
// never neither.
func (d Decision) Validate() error {
	switch {
	case len(d.Events) == 0 && len(d.Rejections) == 0:
		return errors.New("decision must emit events or rejections")
	case len(d.Events) > 0 && len(d.Rejections) > 0:
		return errors.New("decision cannot both emit events and reject")
	default:
		return nil
	}
}
