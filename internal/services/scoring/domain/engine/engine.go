package engine

import (
	"context"
	"slices"
	"time"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/command"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/replay"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/score"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

// Engine scores a single match.
type Engine struct {
	matchID string
	now     func() time.Time
	code    string
	config  score.Config
	state   score.State
	ledger  []event.Event
	redo    []event.Event
}

// Option configures an Engine.
type Option func(*Engine)

// WithMultipliers sets the point value rules used in aggregate and
// tiebreak-only sets.
func WithMultipliers(rules ...pointvalue.Rule) Option {
	return func(e *Engine) {
		e.config.Multipliers = slices.Clone(rules)
	}
}

// WithClock sets the clock used to timestamp new ledger entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMatchID stamps ledger entries with a match id.
func WithMatchID(id string) Option {
	return func(e *Engine) {
		e.matchID = id
	}
}

// PointInput describes one point.
type PointInput struct {
	// Winner is 0 or 1.
	Winner int
	Result string
	Stroke string
	// Server is 0 or 1 when known.
	Server *int
}

// GameInput awards a whole game.
type GameInput struct {
	Winner int
}

// SetInput records a closed set from a known result.
type SetInput struct {
	Side1Score         int
	Side2Score         int
	Side1TiebreakScore *int
	Side2TiebreakScore *int
	// WinningSide is 1 or 2; zero derives it from the scores.
	WinningSide int
}

// ScoreboardOptions configures Scoreboard.
type ScoreboardOptions struct {
	// Perspective 2 renders side 2 first.
	Perspective int
}

// New creates an engine for a format code.
func New(code string, opts ...Option) (*Engine, error) {
	desc, err := format.Parse(code)
	if err != nil {
		return nil, err
	}
	return NewFromDescriptor(desc, opts...)
}

// NewFromDescriptor creates an engine for an already built descriptor. The
// descriptor must have an exact format code so State and SetState round trip.
func NewFromDescriptor(desc format.Descriptor, opts ...Option) (*Engine, error) {
	desc, err := format.Canonical(desc)
	if err != nil {
		return nil, err
	}
	e := &Engine{now: time.Now, config: score.Config{Format: desc}}
	for _, opt := range opts {
		opt(e)
	}
	e.code = desc.String()
	if err := validateMultipliers(e.code, e.config.Multipliers); err != nil {
		return nil, err
	}
	e.state = score.NewState(e.config)
	return e, nil
}

// Format returns the canonical format code.
func (e *Engine) Format() string {
	return e.code
}

// Descriptor returns the parsed format.
func (e *Engine) Descriptor() format.Descriptor {
	return e.config.Format
}

// MatchID returns the id stamped on ledger entries.
func (e *Engine) MatchID() string {
	return e.matchID
}

// AddPoint records one point.
func (e *Engine) AddPoint(in PointInput) error {
	return e.execute(command.TypeScorePoint, score.PointPayload{
		Winner: in.Winner,
		Result: in.Result,
		Stroke: in.Stroke,
		Server: in.Server,
	})
}

// AddGame awards the open game, or the tiebreak, to a side.
func (e *Engine) AddGame(in GameInput) error {
	return e.execute(command.TypeAddGame, score.GamePayload{Winner: in.Winner})
}

// AddSet records a whole set. The open set must not have started.
func (e *Engine) AddSet(in SetInput) error {
	return e.execute(command.TypeAddSet, score.SetPayload{
		Side1Score:         in.Side1Score,
		Side2Score:         in.Side2Score,
		Side1TiebreakScore: in.Side1TiebreakScore,
		Side2TiebreakScore: in.Side2TiebreakScore,
		WinningSide:        in.WinningSide,
	})
}

// EndSegment closes a timed or aggregate segment. A tied segment is rejected
// and play continues.
func (e *Engine) EndSegment() error {
	return e.execute(command.TypeEndSegment, nil)
}

// SetLineUp sets the roster of side 1 or 2.
func (e *Engine) SetLineUp(side int, participantIDs []string) error {
	return e.execute(command.TypeSetLineup, score.LineupPayload{SideNumber: side, ParticipantIDs: participantIDs})
}

// Substitute replaces an active participant. When neither side has a lineup it
// does nothing.
func (e *Engine) Substitute(sub lineup.Substitution) error {
	if !e.state.Lineup.Configured() {
		return nil
	}
	return e.execute(command.TypeSubstitute, sub)
}

// ActivePlayers returns the current roster of both sides.
func (e *Engine) ActivePlayers() lineup.ActivePlayers {
	return e.state.Lineup.Active()
}

// Doubles reports whether either side fields two participants.
func (e *Engine) Doubles() bool {
	return e.state.Lineup.Doubles()
}

// Score returns the derived score.
func (e *Engine) Score() score.Score {
	return e.state.Score()
}

// Scoreboard renders the score as text.
func (e *Engine) Scoreboard(opts ScoreboardOptions) string {
	return e.state.Scoreboard(opts.Perspective == 2)
}

// Status returns the match status.
func (e *Engine) Status() status.MatchStatus {
	return e.state.Status
}

// WinningSide returns 1 or 2 once the match is decided, otherwise 0.
func (e *Engine) WinningSide() int {
	return e.state.WinningSide()
}

// History returns the enriched point history.
func (e *Engine) History() []score.PointRecord {
	return slices.Clone(e.state.Points)
}

// Ledger returns a copy of the accepted events.
func (e *Engine) Ledger() []event.Event {
	return slices.Clone(e.ledger)
}

// CanUndo reports whether there is a ledger entry to undo.
func (e *Engine) CanUndo() bool {
	return len(e.ledger) > 0
}

// CanRedo reports whether there is an undone entry to redo.
func (e *Engine) CanRedo() bool {
	return len(e.redo) > 0
}

// Undo removes up to n ledger entries and rebuilds the state. It reports
// false when nothing was undone.
func (e *Engine) Undo(n int) bool {
	if n <= 0 || len(e.ledger) == 0 {
		return false
	}
	keep := len(e.ledger) - min(n, len(e.ledger))
	ledger := slices.Clone(e.ledger[:keep])
	state, err := rebuild(e.config, e.matchID, ledger)
	if err != nil {
		return false
	}
	e.redo = append(slices.Clone(e.ledger[keep:]), e.redo...)
	e.ledger = ledger
	e.state = state
	return true
}

// Redo restores up to n undone entries and rebuilds the state. It reports
// false when nothing was redone.
func (e *Engine) Redo(n int) bool {
	if n <= 0 || len(e.redo) == 0 {
		return false
	}
	n = min(n, len(e.redo))
	ledger := append(slices.Clone(e.ledger), e.redo[:n]...)
	state, err := rebuild(e.config, e.matchID, ledger)
	if err != nil {
		return false
	}
	e.redo = slices.Clone(e.redo[n:])
	e.ledger = ledger
	e.state = state
	return true
}

func (e *Engine) execute(typ command.Type, payload any) error {
	cmd, err := command.New(e.matchID, typ, payload)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "build command", err)
	}
	decision := score.Decide(e.state, cmd, e.now)
	if decision.Rejected() {
		rejection := decision.Rejections[0]
		return apperrors.WithMetadata(apperrors.Code(rejection.Code), rejection.Message, rejection.Metadata)
	}

	next := e.state
	events := make([]event.Event, 0, len(decision.Events))
	for i, evt := range decision.Events {
		evt.Seq = uint64(len(e.ledger) + i + 1)
		next, err = score.Fold(next, evt)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeUnknown, "apply event", err)
		}
		events = append(events, evt)
	}
	e.state = next
	e.ledger = append(e.ledger, events...)
	e.redo = nil
	return nil
}

// rebuild replays a ledger from the initial state of the configuration.
func rebuild(cfg score.Config, matchID string, ledger []event.Event) (score.State, error) {
	result, err := replay.Replay(
		context.Background(),
		replay.SliceStore(ledger),
		replay.ApplierFunc[score.State](score.Fold),
		matchID,
		score.NewState(cfg),
		replay.Options{},
	)
	if err != nil {
		return score.State{}, err
	}
	return result.State, nil
}

func validateMultipliers(code string, rules []pointvalue.Rule) error {
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			domainErr := apperrors.WithMetadata(apperrors.CodeInvalidFormat, "invalid multiplier rule", map[string]string{"Format": code})
			domainErr.Cause = err
			return domainErr
		}
	}
	return nil
}
