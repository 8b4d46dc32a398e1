package score

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/command"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

var (
	rejectionCodeInvalidPoint        = string(apperrors.CodeInvalidPointInput)
	rejectionCodeInvalidGame         = string(apperrors.CodeInvalidGameInput)
	rejectionCodeInvalidSet          = string(apperrors.CodeInvalidSetInput)
	rejectionCodeMatchCompleted      = string(apperrors.CodeMatchCompleted)
	rejectionCodeSegmentNotTimed     = string(apperrors.CodeSegmentNotTimed)
	rejectionCodeSegmentTied         = string(apperrors.CodeSegmentTied)
	rejectionCodeInvalidLineup       = string(apperrors.CodeInvalidLineup)
	rejectionCodeInvalidSubstitution = string(apperrors.CodeInvalidSubstitution)
)

// Decide returns the decision for a scoring command against current state.
// Accepted commands emit exactly one unsequenced event.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case command.TypeScorePoint:
		return decidePoint(state, cmd, now)
	case command.TypeAddGame:
		return decideGame(state, cmd, now)
	case command.TypeAddSet:
		return decideSet(state, cmd, now)
	case command.TypeEndSegment:
		return decideEndSegment(state, cmd, now)
	case command.TypeSetLineup:
		return decideLineup(state, cmd, now)
	case command.TypeSubstitute:
		return decideSubstitute(state, cmd, now)
	default:
		return reject(command.RejectionCodeCommandTypeUnsupported, "command type %q is not supported", cmd.Type)
	}
}

func decidePoint(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload PointPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(command.RejectionCodePayloadDecodeFailed, "decode point payload: %v", err)
	}
	if state.Completed() {
		return reject(rejectionCodeMatchCompleted, "match is already completed")
	}
	if !validSide(payload.Winner) {
		return reject(rejectionCodeInvalidPoint, "point winner must be 0 or 1, got %d", payload.Winner)
	}
	if payload.Server != nil && !validSide(*payload.Server) {
		return reject(rejectionCodeInvalidPoint, "server must be 0 or 1, got %d", *payload.Server)
	}
	payload.Result = strings.TrimSpace(payload.Result)
	payload.Stroke = strings.TrimSpace(payload.Stroke)
	return accept(cmd, event.TypePointScored, payload, now)
}

func decideGame(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload GamePayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(command.RejectionCodePayloadDecodeFailed, "decode game payload: %v", err)
	}
	if state.Completed() {
		return reject(rejectionCodeMatchCompleted, "match is already completed")
	}
	if !validSide(payload.Winner) {
		return reject(rejectionCodeInvalidGame, "game winner must be 0 or 1, got %d", payload.Winner)
	}
	if rule := state.Rule(); !rule.CountsGames() {
		return reject(rejectionCodeInvalidGame, "games cannot be added to a %s set", strings.ToLower(string(rule.Kind)))
	}
	return accept(cmd, event.TypeGameAdded, payload, now)
}

func decideSet(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload SetPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(command.RejectionCodePayloadDecodeFailed, "decode set payload: %v", err)
	}
	if state.Completed() {
		return reject(rejectionCodeMatchCompleted, "match is already completed")
	}
	if !state.Current.Fresh() {
		return reject(rejectionCodeInvalidSet, "set %d is already in progress", state.Current.Number)
	}
	if payload.Side1Score < 0 || payload.Side2Score < 0 {
		return reject(rejectionCodeInvalidSet, "set scores must not be negative")
	}
	if negative(payload.Side1TiebreakScore) || negative(payload.Side2TiebreakScore) {
		return reject(rejectionCodeInvalidSet, "tiebreak scores must not be negative")
	}
	derived := setWinnerFromScores(payload)
	switch {
	case payload.WinningSide == 0 && derived == 0:
		return reject(rejectionCodeInvalidSet, "winning side is required for a level set score")
	case payload.WinningSide == 0:
		payload.WinningSide = derived
	case payload.WinningSide != 1 && payload.WinningSide != 2:
		return reject(rejectionCodeInvalidSet, "winning side must be 1 or 2, got %d", payload.WinningSide)
	case derived != 0 && derived != payload.WinningSide:
		return reject(rejectionCodeInvalidSet, "winning side %d contradicts score %d-%d", payload.WinningSide, payload.Side1Score, payload.Side2Score)
	}
	return accept(cmd, event.TypeSetAdded, payload, now)
}

func decideEndSegment(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Completed() {
		return reject(rejectionCodeMatchCompleted, "match is already completed")
	}
	if !state.Rule().Timed() {
		return reject(rejectionCodeSegmentNotTimed, "set %d is not a timed segment", state.Current.Number)
	}
	totals := segmentTotals(state)
	if status.SegmentWinner(totals) == status.NoSide {
		return rejectWith(rejectionCodeSegmentTied, map[string]string{
			"Side1": strconv.Itoa(totals[0]),
			"Side2": strconv.Itoa(totals[1]),
		}, "segment is tied at %d-%d", totals[0], totals[1])
	}
	return accept(cmd, event.TypeSegmentEnded, nil, now)
}

func decideLineup(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload LineupPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(command.RejectionCodePayloadDecodeFailed, "decode lineup payload: %v", err)
	}
	next, err := state.Lineup.WithSide(payload.SideNumber, payload.ParticipantIDs)
	if err != nil {
		return rejectWith(rejectionCodeInvalidLineup, map[string]string{
			"Side": strconv.Itoa(payload.SideNumber),
		}, "%v", err)
	}
	payload.ParticipantIDs = next.Side(payload.SideNumber)
	return accept(cmd, event.TypeLineupSet, payload, now)
}

func decideSubstitute(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload SubstitutionPayload
	if err := json.Unmarshal(cmd.PayloadJSON, &payload); err != nil {
		return reject(command.RejectionCodePayloadDecodeFailed, "decode substitution payload: %v", err)
	}
	payload.OutParticipantID = strings.TrimSpace(payload.OutParticipantID)
	payload.InParticipantID = strings.TrimSpace(payload.InParticipantID)
	metadata := map[string]string{
		"Participant": payload.OutParticipantID,
		"Side":        strconv.Itoa(payload.SideNumber),
	}
	if !state.Lineup.Configured() {
		return rejectWith(rejectionCodeInvalidSubstitution, metadata, "no lineup is configured")
	}
	if _, err := state.Lineup.Apply(payload); err != nil {
		return rejectWith(rejectionCodeInvalidSubstitution, metadata, "%v", err)
	}
	payload.BeforePointIndex = len(state.Points)
	return accept(cmd, event.TypeParticipantSubstituted, payload, now)
}

func accept(cmd command.Command, eventType event.Type, payload any, now func() time.Time) command.Decision {
	var payloadJSON []byte
	if payload != nil {
		payloadJSON, _ = json.Marshal(payload)
	}
	return command.Accept(command.NewEvent(cmd, eventType, payloadJSON, now()))
}

func reject(code, format string, args ...any) command.Decision {
	return rejectWith(code, nil, format, args...)
}

func rejectWith(code string, metadata map[string]string, format string, args ...any) command.Decision {
	return command.Reject(command.Rejection{Code: code, Message: fmt.Sprintf(format, args...), Metadata: metadata})
}

func validSide(side int) bool {
	return side == 0 || side == 1
}

func negative(v *int) bool {
	return v != nil && *v < 0
}

// setWinnerFromScores returns 1 or 2 from set scores, then tiebreak scores,
// or 0 when both are level.
func setWinnerFromScores(p SetPayload) int {
	switch {
	case p.Side1Score > p.Side2Score:
		return 1
	case p.Side2Score > p.Side1Score:
		return 2
	}
	if p.Side1TiebreakScore != nil && p.Side2TiebreakScore != nil {
		switch {
		case *p.Side1TiebreakScore > *p.Side2TiebreakScore:
			return 1
		case *p.Side2TiebreakScore > *p.Side1TiebreakScore:
			return 2
		}
	}
	return 0
}

// segmentTotals returns what decides a timed segment: games for timed sets,
// weighted points for aggregate sets.
func segmentTotals(state State) [2]int {
	if state.Rule().CountsGames() {
		return state.Current.Games
	}
	return state.Current.Points
}
