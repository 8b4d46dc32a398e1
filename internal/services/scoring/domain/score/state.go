package score

import (
	"slices"
	"time"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

// Config is the immutable configuration a match is replayed against.
type Config struct {
	Format      format.Descriptor
	Multipliers []pointvalue.Rule
}

// State is the derived state of a match.
type State struct {
	Config Config
	// Sets holds closed sets in play order.
	Sets    []SetScore
	Current SetProgress
	SetsWon [2]int
	Outcome status.Outcome
	Status  status.MatchStatus
	// Points is the enriched point history.
	Points        []PointRecord
	Lineup        lineup.Lineup
	Substitutions []lineup.Substitution
}

// SetProgress is the open set.
type SetProgress struct {
	Number int
	Games  [2]int
	// Points counts game points, tiebreak points, or weighted segment totals
	// depending on the set kind.
	Points     [2]int
	Streak     status.Streak
	InTiebreak bool
	GameLog    []GameScore
}

// SetScore is a set as reported to callers.
type SetScore struct {
	SetNumber          int         `json:"setNumber"`
	Side1Score         int         `json:"side1Score"`
	Side2Score         int         `json:"side2Score"`
	Side1TiebreakScore *int        `json:"side1TiebreakScore,omitempty"`
	Side2TiebreakScore *int        `json:"side2TiebreakScore,omitempty"`
	TiebreakSet        bool        `json:"tiebreakSet,omitempty"`
	Games              []GameScore `json:"games,omitempty"`
	// WinningSide is 1 or 2 once the set is closed.
	WinningSide int `json:"winningSide,omitempty"`
}

// GameScore is one finished game of a set.
type GameScore struct {
	GameNumber  int  `json:"gameNumber"`
	Side1Points int  `json:"side1Points"`
	Side2Points int  `json:"side2Points"`
	WinningSide int  `json:"winningSide"`
	Tiebreak    bool `json:"tiebreak,omitempty"`
	// Composite marks a game added whole rather than point by point.
	Composite bool `json:"composite,omitempty"`
}

// PointRecord is a point as kept in the match history.
type PointRecord struct {
	Index  int    `json:"index"`
	Winner int    `json:"winner"`
	Set    int    `json:"set"`
	Game   int    `json:"game"`
	Result string `json:"result,omitempty"`
	Stroke string `json:"stroke,omitempty"`
	// Server is the serving side (0 or 1) when known.
	Server        *int                  `json:"server,omitempty"`
	Weight        int                   `json:"weight"`
	Tiebreak      bool                  `json:"tiebreak,omitempty"`
	ActivePlayers *lineup.ActivePlayers `json:"activePlayers,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}

// NewState returns the state of a match before any event.
func NewState(cfg Config) State {
	return State{
		Config:  cfg,
		Current: SetProgress{Number: 1},
		Outcome: status.Outcome{Winner: status.NoSide},
		Status:  status.ToBePlayed,
	}
}

// Rule returns the set rule in force for the open set.
func (s State) Rule() format.SetRule {
	return s.Config.Format.RuleForSet(s.Current.Number)
}

// Completed reports whether the match is over.
func (s State) Completed() bool {
	return s.Outcome.Complete
}

// WinningSide returns 1 or 2 for a decided match, otherwise 0.
func (s State) WinningSide() int {
	if !s.Outcome.Complete || s.Outcome.Winner == status.NoSide {
		return 0
	}
	return s.Outcome.Winner + 1
}

// Started reports whether anything has been scored.
func (s State) Started() bool {
	return len(s.Points) > 0 || len(s.Sets) > 0 || len(s.Current.GameLog) > 0
}

// Fresh reports whether nothing has been scored in the open set.
func (p SetProgress) Fresh() bool {
	return p.Games == [2]int{} && p.Points == [2]int{} && len(p.GameLog) == 0 && !p.InTiebreak
}

// Score is the derived score reported to callers.
type Score struct {
	// Sets lists closed sets followed by the open set, if any.
	Sets          []SetScore `json:"sets"`
	Games         [2]int     `json:"games"`
	Points        [2]int     `json:"points"`
	PointsDisplay [2]string  `json:"pointsDisplay"`
	InTiebreak    bool       `json:"inTiebreak,omitempty"`
	SetsWon       [2]int     `json:"setsWon"`
}

// Score returns a caller-owned copy of the derived score.
func (s State) Score() Score {
	sets := make([]SetScore, 0, len(s.Sets)+1)
	for _, set := range s.Sets {
		sets = append(sets, set.clone())
	}
	out := Score{SetsWon: s.SetsWon}
	if s.Completed() {
		out.Sets = sets
		return out
	}
	out.Sets = append(sets, s.openSet())
	out.Games = s.Current.Games
	out.Points = s.Current.Points
	out.PointsDisplay = PointsDisplay(s.Rule(), s.Current)
	out.InTiebreak = s.Current.InTiebreak
	return out
}

func (s State) openSet() SetScore {
	cur := s.Current
	set := SetScore{SetNumber: cur.Number, Games: slices.Clone(cur.GameLog)}
	switch s.Rule().Kind {
	case format.SetTiebreakOnly:
		set.TiebreakSet = true
		set.Side1TiebreakScore = intPtr(cur.Points[0])
		set.Side2TiebreakScore = intPtr(cur.Points[1])
	case format.SetAggregate:
		set.Side1Score, set.Side2Score = cur.Points[0], cur.Points[1]
	case format.SetStandard, format.SetTimed:
		set.Side1Score, set.Side2Score = cur.Games[0], cur.Games[1]
		if cur.InTiebreak {
			set.Side1TiebreakScore = intPtr(cur.Points[0])
			set.Side2TiebreakScore = intPtr(cur.Points[1])
		}
	}
	return set
}

func (s SetScore) clone() SetScore {
	out := s
	out.Games = slices.Clone(s.Games)
	if s.Side1TiebreakScore != nil {
		out.Side1TiebreakScore = intPtr(*s.Side1TiebreakScore)
	}
	if s.Side2TiebreakScore != nil {
		out.Side2TiebreakScore = intPtr(*s.Side2TiebreakScore)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
