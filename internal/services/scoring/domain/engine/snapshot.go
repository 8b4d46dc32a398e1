package engine

import (
	"slices"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/score"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

// Snapshot is the serializable state of an engine. The ledger and format are
// authoritative; the score, status and history are derived copies included
// for readers that do not replay.
type Snapshot struct {
	Format      string             `json:"format"`
	Options     SnapshotOptions    `json:"options"`
	Ledger      []event.Event      `json:"ledger"`
	Redo        []event.Event      `json:"redo,omitempty"`
	Score       score.Score        `json:"score"`
	Status      status.MatchStatus `json:"status"`
	WinningSide int                `json:"winningSide,omitempty"`
	History     History            `json:"history"`
}

// SnapshotOptions holds the engine options that affect replay.
type SnapshotOptions struct {
	MatchID     string            `json:"matchId,omitempty"`
	Multipliers []pointvalue.Rule `json:"multipliers,omitempty"`
}

// History is the enriched record of the match so far.
type History struct {
	Points        []score.PointRecord   `json:"points"`
	Substitutions []lineup.Substitution `json:"substitutions,omitempty"`
	Lineup        lineup.ActivePlayers  `json:"lineup"`
}

// State returns a snapshot that SetState can restore.
func (e *Engine) State() Snapshot {
	points := slices.Clone(e.state.Points)
	if points == nil {
		points = []score.PointRecord{}
	}
	ledger := slices.Clone(e.ledger)
	if ledger == nil {
		ledger = []event.Event{}
	}
	return Snapshot{
		Format: e.code,
		Options: SnapshotOptions{
			MatchID:     e.matchID,
			Multipliers: slices.Clone(e.config.Multipliers),
		},
		Ledger:      ledger,
		Redo:        slices.Clone(e.redo),
		Score:       e.state.Score(),
		Status:      e.state.Status,
		WinningSide: e.state.WinningSide(),
		History: History{
			Points:        points,
			Substitutions: slices.Clone(e.state.Substitutions),
			Lineup:        e.state.Lineup.Active(),
		},
	}
}

// SetState replaces the engine state with a snapshot. The ledger is replayed
// from the snapshot format; on any error the engine keeps its prior state.
func (e *Engine) SetState(snap Snapshot) error {
	desc, err := format.Parse(snap.Format)
	if err != nil {
		return deserializationError("parse snapshot format", err)
	}
	for _, rule := range snap.Options.Multipliers {
		if err := rule.Validate(); err != nil {
			return deserializationError("invalid snapshot multiplier", err)
		}
	}
	if err := event.ValidateSequence(snap.Ledger, 1); err != nil {
		return deserializationError("invalid snapshot ledger", err)
	}
	if err := event.ValidateSequence(snap.Redo, uint64(len(snap.Ledger))+1); err != nil {
		return deserializationError("invalid snapshot redo stack", err)
	}

	matchID := e.matchID
	if snap.Options.MatchID != "" {
		matchID = snap.Options.MatchID
	}
	cfg := score.Config{Format: desc, Multipliers: slices.Clone(snap.Options.Multipliers)}
	ledger := slices.Clone(snap.Ledger)
	state, err := rebuild(cfg, matchID, ledger)
	if err != nil {
		return deserializationError("replay snapshot ledger", err)
	}
	if len(snap.Redo) > 0 {
		if _, err := rebuild(cfg, matchID, append(slices.Clone(ledger), snap.Redo...)); err != nil {
			return deserializationError("replay snapshot redo stack", err)
		}
	}

	e.matchID = matchID
	e.code = desc.String()
	e.config = cfg
	e.state = state
	e.ledger = ledger
	e.redo = slices.Clone(snap.Redo)
	return nil
}

// Restore creates an engine from a snapshot.
func Restore(snap Snapshot, opts ...Option) (*Engine, error) {
	e, err := New(snap.Format, opts...)
	if err != nil {
		return nil, deserializationError("parse snapshot format", err)
	}
	if err := e.SetState(snap); err != nil {
		return nil, err
	}
	return e, nil
}

func deserializationError(message string, cause error) error {
	return apperrors.Wrap(apperrors.CodeStateDeserialization, message, cause)
}
