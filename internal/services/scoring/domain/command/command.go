package command

import (
	"encoding/json"
	"time"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
)

// Type identifies a command.
type Type string

const (
	TypeScorePoint Type = "point.score"
	TypeAddGame    Type = "game.add"
	TypeAddSet     Type = "set.add"
	TypeEndSegment Type = "segment.end"
	TypeSetLineup  Type = "lineup.set"
	TypeSubstitute Type = "participant.substitute"
)

// Command is a normalized request to change match state.
type Command struct {
	MatchID     string
	Type        Type
	PayloadJSON []byte
}

// New marshals payload into a command of the given type.
func New(matchID string, typ Type, payload any) (Command, error) {
	cmd := Command{MatchID: matchID, Type: typ}
	if payload == nil {
		return cmd, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Command{}, err
	}
	cmd.PayloadJSON = data
	return cmd, nil
}

// NewEvent builds an unsequenced event from a command. The ledger assigns Seq
// when the event is appended.
func NewEvent(cmd Command, eventType event.Type, payloadJSON []byte, now time.Time) event.Event {
	return event.Event{
		MatchID:     cmd.MatchID,
		Type:        eventType,
		Timestamp:   now.UTC(),
		PayloadJSON: payloadJSON,
	}
}
