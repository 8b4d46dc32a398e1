package score

import (
	"strconv"
	"strings"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
)

var gamePointLabels = [...]string{"0", "15", "30", "40"}

// PointsDisplay renders the points of the open game. Standard and no-ad games
// use tennis labels; tiebreaks, consecutive games and segments use raw counts.
func PointsDisplay(rule format.SetRule, cur SetProgress) [2]string {
	raw := [2]string{strconv.Itoa(cur.Points[0]), strconv.Itoa(cur.Points[1])}
	if cur.InTiebreak || !rule.CountsGames() {
		return raw
	}
	switch rule.Game.Kind {
	case format.GameStandard, format.GameNoAd:
		return tennisPoints(cur.Points)
	case format.GameConsecutive:
		return raw
	default:
		return raw
	}
}

func tennisPoints(points [2]int) [2]string {
	p1, p2 := points[0], points[1]
	if p1 >= 3 && p2 >= 3 {
		switch {
		case p1 > p2:
			return [2]string{"A", "40"}
		case p2 > p1:
			return [2]string{"40", "A"}
		default:
			return [2]string{"40", "40"}
		}
	}
	return [2]string{gamePointLabels[min(p1, 3)], gamePointLabels[min(p2, 3)]}
}

// Scoreboard renders the match as text, e.g. "6-4 7-6(5) 2-1 (30-15)". When
// flip is set, side 2 is rendered first.
func (s State) Scoreboard(flip bool) string {
	parts := make([]string, 0, len(s.Sets)+1)
	for _, set := range s.Sets {
		parts = append(parts, renderSet(set, flip))
	}
	if !s.Completed() && (len(s.Sets) == 0 || !s.Current.Fresh()) {
		parts = append(parts, s.renderOpenSet(flip))
	}
	return strings.Join(parts, " ")
}

func renderSet(set SetScore, flip bool) string {
	if set.TiebreakSet {
		if set.Side1TiebreakScore != nil && set.Side2TiebreakScore != nil {
			return "[" + pair(*set.Side1TiebreakScore, *set.Side2TiebreakScore, flip) + "]"
		}
		return "[" + pair(set.Side1Score, set.Side2Score, flip) + "]"
	}

	left, right := strconv.Itoa(set.Side1Score), strconv.Itoa(set.Side2Score)
	if set.Side1TiebreakScore != nil && set.Side2TiebreakScore != nil {
		loser := 2
		if set.WinningSide == 2 || (set.WinningSide == 0 && set.Side2Score > set.Side1Score) {
			loser = 1
		}
		if loser == 1 {
			left += "(" + strconv.Itoa(*set.Side1TiebreakScore) + ")"
		} else {
			right += "(" + strconv.Itoa(*set.Side2TiebreakScore) + ")"
		}
	}
	if flip {
		left, right = right, left
	}
	return left + "-" + right
}

func (s State) renderOpenSet(flip bool) string {
	cur := s.Current
	rule := s.Rule()
	switch rule.Kind {
	case format.SetTiebreakOnly:
		return "[" + pair(cur.Points[0], cur.Points[1], flip) + "]"
	case format.SetAggregate:
		return pair(cur.Points[0], cur.Points[1], flip)
	case format.SetStandard, format.SetTimed:
	}

	out := pair(cur.Games[0], cur.Games[1], flip)
	if cur.Points == [2]int{} {
		return out
	}
	labels := PointsDisplay(rule, cur)
	if flip {
		labels[0], labels[1] = labels[1], labels[0]
	}
	return out + " (" + labels[0] + "-" + labels[1] + ")"
}

func pair(a, b int, flip bool) string {
	if flip {
		a, b = b, a
	}
	return strconv.Itoa(a) + "-" + strconv.Itoa(b)
}
