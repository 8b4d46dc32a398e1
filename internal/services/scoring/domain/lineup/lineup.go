// Package lineup tracks the active participants of each side.
package lineup

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidSide indicates a side number other than 1 or 2.
	ErrInvalidSide = errors.New("side number must be 1 or 2")
	// ErrInvalidRoster indicates a roster that is empty, too large, or has
	// blank or repeated ids.
	ErrInvalidRoster = errors.New("roster must list one or two distinct participants")
	// ErrParticipantNotActive indicates a substitution for someone not on court.
	ErrParticipantNotActive = errors.New("participant is not active on side")
	// ErrParticipantAlreadyActive indicates a substitution bringing on someone
	// already on court.
	ErrParticipantAlreadyActive = errors.New("participant is already active")
)

// MaxPerSide is the doubles roster size.
const MaxPerSide = 2

// Lineup is the active roster of both sides.
type Lineup struct {
	Side1 []string `json:"side1,omitempty"`
	Side2 []string `json:"side2,omitempty"`
}

// ActivePlayers is the roster snapshot attached to a point.
type ActivePlayers struct {
	Side1 []string `json:"side1"`
	Side2 []string `json:"side2"`
}

// Substitution replaces one active participant.
type Substitution struct {
	SideNumber       int    `json:"sideNumber"`
	OutParticipantID string `json:"outParticipantId"`
	InParticipantID  string `json:"inParticipantId"`
	// BeforePointIndex is the index of the next point to be recorded.
	BeforePointIndex int `json:"beforePointIndex"`
}

// Configured reports whether any roster has been set.
func (l Lineup) Configured() bool {
	return len(l.Side1) > 0 || len(l.Side2) > 0
}

// Doubles reports whether either side fields two participants.
func (l Lineup) Doubles() bool {
	return len(l.Side1) == MaxPerSide || len(l.Side2) == MaxPerSide
}

// Side returns a copy of the roster for side 1 or 2.
func (l Lineup) Side(side int) []string {
	switch side {
	case 1:
		return slices.Clone(l.Side1)
	case 2:
		return slices.Clone(l.Side2)
	default:
		return nil
	}
}

// WithSide returns a lineup with the roster of one side replaced.
func (l Lineup) WithSide(side int, ids []string) (Lineup, error) {
	roster, err := normalizeRoster(ids)
	if err != nil {
		return l, err
	}
	next := l.clone()
	switch side {
	case 1:
		next.Side1 = roster
	case 2:
		next.Side2 = roster
	default:
		return l, ErrInvalidSide
	}
	return next, nil
}

// Apply returns a lineup with the substitution applied positionally.
func (l Lineup) Apply(sub Substitution) (Lineup, error) {
	if sub.SideNumber != 1 && sub.SideNumber != 2 {
		return l, ErrInvalidSide
	}
	out := strings.TrimSpace(sub.OutParticipantID)
	in := strings.TrimSpace(sub.InParticipantID)
	if out == "" || in == "" {
		return l, ErrInvalidRoster
	}
	if slices.Contains(l.Side1, in) || slices.Contains(l.Side2, in) {
		return l, fmt.Errorf("%w: %s", ErrParticipantAlreadyActive, in)
	}

	next := l.clone()
	roster := next.Side1
	if sub.SideNumber == 2 {
		roster = next.Side2
	}
	idx := slices.Index(roster, out)
	if idx < 0 {
		return l, fmt.Errorf("%w: %s on side %d", ErrParticipantNotActive, out, sub.SideNumber)
	}
	roster[idx] = in
	return next, nil
}

// Active returns the snapshot attached to points.
func (l Lineup) Active() ActivePlayers {
	return ActivePlayers{
		Side1: nonNil(slices.Clone(l.Side1)),
		Side2: nonNil(slices.Clone(l.Side2)),
	}
}

func (l Lineup) clone() Lineup {
	return Lineup{Side1: slices.Clone(l.Side1), Side2: slices.Clone(l.Side2)}
}

func normalizeRoster(ids []string) ([]string, error) {
	if len(ids) == 0 || len(ids) > MaxPerSide {
		return nil, ErrInvalidRoster
	}
	roster := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(roster, id) {
			return nil, ErrInvalidRoster
		}
		roster = append(roster, id)
	}
	return roster, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
