package score

import "github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"

// PointPayload captures the payload for point.score commands and point.scored events.
type PointPayload struct {
	Winner int    `json:"winner"`
	Result string `json:"result,omitempty"`
	Stroke string `json:"stroke,omitempty"`
	Server *int   `json:"server,omitempty"`
}

// GamePayload captures the payload for game.add commands and game.added events.
type GamePayload struct {
	Winner int `json:"winner"`
}

// SetPayload captures the payload for set.add commands and set.added events.
type SetPayload struct {
	Side1Score         int  `json:"side1Score"`
	Side2Score         int  `json:"side2Score"`
	Side1TiebreakScore *int `json:"side1TiebreakScore,omitempty"`
	Side2TiebreakScore *int `json:"side2TiebreakScore,omitempty"`
	// WinningSide is 1 or 2; zero derives it from the scores.
	WinningSide int `json:"winningSide,omitempty"`
}

// LineupPayload captures the payload for lineup.set commands and events.
type LineupPayload struct {
	SideNumber     int      `json:"sideNumber"`
	ParticipantIDs []string `json:"participantIds"`
}

// SubstitutionPayload captures the payload for participant substitutions.
type SubstitutionPayload = lineup.Substitution
