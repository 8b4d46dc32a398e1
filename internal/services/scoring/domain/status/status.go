// Package status holds the pure completion predicates used by the score
// state machine. Sides are 0 and 1; a returned side of -1 means none.
package status

import "github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"

// MatchStatus is the lifecycle of a match.
type MatchStatus string

const (
	ToBePlayed MatchStatus = "TO_BE_PLAYED"
	InProgress MatchStatus = "IN_PROGRESS"
	Completed  MatchStatus = "COMPLETED"
)

// NoSide is returned when no side has won.
const NoSide = -1

// Streak is the run of uninterrupted points of the side that scored last.
type Streak struct {
	Side  int `json:"side"`
	Count int `json:"count"`
}

// Next returns the streak after side wins a point.
func (s Streak) Next(side int) Streak {
	if s.Count > 0 && s.Side == side {
		return Streak{Side: side, Count: s.Count + 1}
	}
	return Streak{Side: side, Count: 1}
}

// GameWinner returns the side that has won the game, if any.
func GameWinner(rule format.GameRule, points [2]int, streak Streak) int {
	switch rule.Kind {
	case format.GameStandard:
		return leaderWithMargin(points, 4, 2)
	case format.GameNoAd:
		return leaderWithMargin(points, 4, 1)
	case format.GameConsecutive:
		if streak.Count >= rule.Streak && streak.Count > 0 {
			return streak.Side
		}
		return NoSide
	default:
		return NoSide
	}
}

// TiebreakWinner returns the side that has won a tiebreak, if any.
func TiebreakWinner(rule format.TiebreakRule, points [2]int) int {
	margin := 2
	if rule.NoAd {
		margin = 1
	}
	return leaderWithMargin(points, rule.Target, margin)
}

// SetWinner returns the side that has won a standard set on games. Tiebreak,
// timed and aggregate sets are closed elsewhere.
func SetWinner(rule format.SetRule, games [2]int) int {
	if rule.Kind != format.SetStandard {
		return NoSide
	}
	return leaderWithMargin(games, rule.GameTarget, 2)
}

// TiebreakTriggered reports whether the set enters its tiebreak at these games.
func TiebreakTriggered(rule format.SetRule, games [2]int) bool {
	at := rule.TiebreakAt()
	return at > 0 && games[0] == at && games[1] == at
}

// SegmentWinner returns the side with the higher total, or NoSide on a tie.
func SegmentWinner(totals [2]int) int {
	switch {
	case totals[0] > totals[1]:
		return 0
	case totals[1] > totals[0]:
		return 1
	default:
		return NoSide
	}
}

// Outcome is the result of evaluating match completion.
type Outcome struct {
	Complete bool
	// Winner is 0 or 1, or NoSide for a completed draw.
	Winner int
}

// MatchOutcome decides whether the match is over. setsWon counts sets per
// side, setsPlayed counts closed sets, and aggregate sums set scores per side
// for matches decided on points.
func MatchOutcome(desc format.Descriptor, setsWon [2]int, setsPlayed int, aggregate [2]int) Outcome {
	if !desc.Exactly {
		for side, won := range setsWon {
			if won >= desc.SetsToWin() {
				return Outcome{Complete: true, Winner: side}
			}
		}
		return Outcome{Winner: NoSide}
	}
	if setsPlayed < desc.BestOf {
		return Outcome{Winner: NoSide}
	}
	if desc.Aggregate {
		if winner := SegmentWinner(aggregate); winner != NoSide {
			return Outcome{Complete: true, Winner: winner}
		}
	}
	return Outcome{Complete: true, Winner: SegmentWinner(setsWon)}
}

// Derive returns the match status for a match that has or has not started.
func Derive(started bool, outcome Outcome) MatchStatus {
	switch {
	case outcome.Complete:
		return Completed
	case started:
		return InProgress
	default:
		return ToBePlayed
	}
}

func leaderWithMargin(values [2]int, target, margin int) int {
	for side := 0; side < 2; side++ {
		own, other := values[side], values[1-side]
		if own >= target && own-other >= margin {
			return side
		}
	}
	return NoSide
}
