package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type identifies the kind of ledger entry.
type Type string

const (
	// TypePointScored records one rally won by a side.
	TypePointScored Type = "point.scored"
	// TypeGameAdded records a whole game awarded without its points.
	TypeGameAdded Type = "game.added"
	// TypeSetAdded records a closed set from an externally known result.
	TypeSetAdded Type = "set.added"
	// TypeSegmentEnded closes a timed or aggregate segment.
	TypeSegmentEnded Type = "segment.ended"
	// TypeLineupSet seeds the active roster of one side.
	TypeLineupSet Type = "lineup.set"
	// TypeParticipantSubstituted swaps one active participant.
	TypeParticipantSubstituted Type = "participant.substituted"
)

var (
	// ErrTypeRequired indicates an event without a type.
	ErrTypeRequired = errors.New("event type is required")
	// ErrSeqRequired indicates an event that was never sequenced.
	ErrSeqRequired = errors.New("event seq is required")
)

// Event is one immutable ledger entry.
type Event struct {
	MatchID     string          `json:"matchId,omitempty"`
	Seq         uint64          `json:"seq"`
	Type        Type            `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	PayloadJSON json.RawMessage `json:"payload,omitempty"`
}

// Types lists every known event type in ledger order of introduction.
func Types() []Type {
	return []Type{
		TypePointScored,
		TypeGameAdded,
		TypeSetAdded,
		TypeSegmentEnded,
		TypeLineupSet,
		TypeParticipantSubstituted,
	}
}

// Known reports whether t is a registered event type.
func (t Type) Known() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Scoring reports whether the event type advances the score (as opposed to
// roster bookkeeping).
func (t Type) Scoring() bool {
	switch t {
	case TypePointScored, TypeGameAdded, TypeSetAdded, TypeSegmentEnded:
		return true
	default:
		return false
	}
}

// Validate checks the envelope fields required for a persisted event.
func (e Event) Validate() error {
	if strings.TrimSpace(string(e.Type)) == "" {
		return ErrTypeRequired
	}
	if !e.Type.Known() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.Seq == 0 {
		return ErrSeqRequired
	}
	return nil
}

// ValidateSequence checks that events are valid and numbered contiguously
// starting at first.
func ValidateSequence(events []Event, first uint64) error {
	for i, evt := range events {
		if err := evt.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if want := first + uint64(i); evt.Seq != want {
			return fmt.Errorf("event sequence gap: expected %d got %d", want, evt.Seq)
		}
	}
	return nil
}
