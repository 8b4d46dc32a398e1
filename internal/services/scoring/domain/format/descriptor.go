package format

import (
	"reflect"
	"strconv"
	"strings"
)

// SetKind selects how a set (or segment) is won.
type SetKind string

const (
	// SetStandard is won on games, optionally closed by a tiebreak.
	SetStandard SetKind = "STANDARD"
	// SetTiebreakOnly is a single tiebreak game to GameTarget points.
	SetTiebreakOnly SetKind = "TIEBREAK_ONLY"
	// SetTimed counts games and closes only when the segment is ended.
	SetTimed SetKind = "TIMED"
	// SetAggregate accumulates weighted points and closes only when the
	// segment is ended.
	SetAggregate SetKind = "AGGREGATE"
)

// GameKind selects how a game is won.
type GameKind string

const (
	// GameStandard is 0/15/30/40 with deuce and advantage.
	GameStandard GameKind = "STANDARD"
	// GameNoAd decides the game on the point played at 40-40.
	GameNoAd GameKind = "NO_AD"
	// GameConsecutive is won by the first uninterrupted streak of Streak points.
	GameConsecutive GameKind = "CONSECUTIVE"
)

// GameRule describes how games are won within a set.
type GameRule struct {
	Kind   GameKind `json:"kind"`
	Streak int      `json:"streak,omitempty"`
}

// TiebreakRule describes a tiebreak game.
type TiebreakRule struct {
	// Target is the number of points needed to win the tiebreak.
	Target int `json:"target"`
	// At is the games-all count that triggers the tiebreak.
	At   int  `json:"at,omitempty"`
	NoAd bool `json:"noAd,omitempty"`
}

// SetRule describes one set or timed segment.
type SetRule struct {
	Kind SetKind `json:"kind"`
	// GameTarget is games to win a standard set, or points to win a
	// tiebreak-only set.
	GameTarget int           `json:"gameTarget,omitempty"`
	Minutes    int           `json:"minutes,omitempty"`
	Tiebreak   *TiebreakRule `json:"tiebreak,omitempty"`
	Game       GameRule      `json:"game"`
}

// Descriptor is the parsed, validated form of a format code.
type Descriptor struct {
	BestOf int `json:"bestOf"`
	// Exactly plays all BestOf sets regardless of sets already won.
	Exactly bool `json:"exactly,omitempty"`
	// Aggregate decides an Exactly match on total points instead of sets.
	Aggregate bool     `json:"aggregate,omitempty"`
	Set       SetRule  `json:"set"`
	Final     *SetRule `json:"final,omitempty"`
}

// SetsToWin returns the sets one side needs to win the match.
func (d Descriptor) SetsToWin() int {
	return (d.BestOf + 1) / 2
}

// RuleForSet returns the rule in force for the 1-based set number. The
// deciding set uses the final override when one is configured.
func (d Descriptor) RuleForSet(number int) SetRule {
	if d.Final != nil && number == d.BestOf {
		return *d.Final
	}
	return d.Set
}

// TiebreakAt returns the games-all count that starts the tiebreak, or 0 when
// the set has none.
func (r SetRule) TiebreakAt() int {
	if r.Kind != SetStandard || r.Tiebreak == nil {
		return 0
	}
	if r.Tiebreak.At > 0 {
		return r.Tiebreak.At
	}
	return r.GameTarget
}

// CountsGames reports whether points in this set are grouped into games.
func (r SetRule) CountsGames() bool {
	switch r.Kind {
	case SetStandard, SetTimed:
		return true
	case SetTiebreakOnly, SetAggregate:
		return false
	default:
		return false
	}
}

// Timed reports whether the set only closes when the segment is ended.
func (r SetRule) Timed() bool {
	switch r.Kind {
	case SetTimed, SetAggregate:
		return true
	case SetStandard, SetTiebreakOnly:
		return false
	default:
		return false
	}
}

// SetTiebreak returns the tiebreak that decides a tiebreak-only set.
func (r SetRule) SetTiebreak() TiebreakRule {
	tb := TiebreakRule{Target: r.GameTarget}
	if r.Tiebreak != nil {
		tb.NoAd = r.Tiebreak.NoAd
	}
	return tb
}

// Canonical validates a caller-built descriptor and returns the form Parse
// produces for its code. Descriptors whose rules cannot be written as a format
// code are rejected with INVALID_FORMAT.
func Canonical(d Descriptor) (Descriptor, error) {
	code := d.String()
	if err := d.Validate(); err != nil {
		return Descriptor{}, invalidFormat(code, "invalid format", err)
	}
	parsed, err := Parse(code)
	if err != nil {
		return Descriptor{}, err
	}
	if !reflect.DeepEqual(parsed, d.normalized()) {
		return Descriptor{}, invalidFormat(code, "descriptor has no equivalent format code", nil)
	}
	return parsed, nil
}

// normalized fills the defaults Parse writes explicitly.
func (d Descriptor) normalized() Descriptor {
	d.Set = d.Set.normalized()
	if d.Final != nil {
		final := d.Final.normalized()
		d.Final = &final
	}
	return d
}

func (r SetRule) normalized() SetRule {
	switch r.Kind {
	case SetStandard:
		if r.Tiebreak != nil {
			tb := *r.Tiebreak
			if tb.At == 0 {
				tb.At = r.GameTarget
			}
			r.Tiebreak = &tb
		}
	case SetTiebreakOnly:
		tb := TiebreakRule{Target: r.GameTarget}
		if r.Tiebreak != nil {
			tb.NoAd = r.Tiebreak.NoAd
			tb.At = r.Tiebreak.At
		}
		r.Tiebreak = &tb
	}
	return r
}

// String returns the canonical format code. Parse(d.String()) yields d for
// every descriptor produced by Parse, Deduce or Canonical.
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString("SET")
	b.WriteString(strconv.Itoa(d.BestOf))
	if d.Exactly {
		b.WriteString("X")
		if d.Aggregate {
			b.WriteString("A")
		}
	}
	b.WriteString("-S:")
	b.WriteString(d.Set.code())
	if d.Set.Game.Kind == GameConsecutive {
		b.WriteString("-G:")
		b.WriteString(strconv.Itoa(d.Set.Game.Streak))
		b.WriteString("C")
	}
	if d.Final != nil {
		b.WriteString("-F:")
		b.WriteString(d.Final.code())
	}
	return b.String()
}

func (r SetRule) code() string {
	var b strings.Builder
	switch r.Kind {
	case SetStandard:
		b.WriteString(strconv.Itoa(r.GameTarget))
		if r.Game.Kind == GameNoAd {
			b.WriteString("NOAD")
		}
		if r.Tiebreak != nil {
			b.WriteString("/TB")
			b.WriteString(strconv.Itoa(r.Tiebreak.Target))
			if r.Tiebreak.At > 0 && r.Tiebreak.At != r.GameTarget {
				b.WriteString("@")
				b.WriteString(strconv.Itoa(r.Tiebreak.At))
			}
			if r.Tiebreak.NoAd {
				b.WriteString("NOAD")
			}
		}
	case SetTiebreakOnly:
		b.WriteString("TB")
		b.WriteString(strconv.Itoa(r.GameTarget))
		if r.Tiebreak != nil && r.Tiebreak.NoAd {
			b.WriteString("NOAD")
		}
	case SetTimed:
		b.WriteString("T")
		b.WriteString(strconv.Itoa(r.Minutes))
	case SetAggregate:
		b.WriteString("T")
		b.WriteString(strconv.Itoa(r.Minutes))
		b.WriteString("P")
	}
	return b.String()
}
