package score

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

// ErrMatchCompleted is returned when a scoring event is folded into a
// completed match.
var ErrMatchCompleted = errors.New("match is already completed")

// Fold applies an event to match state. The input state is never modified.
func Fold(state State, evt event.Event) (State, error) {
	if evt.Type.Scoring() && state.Completed() {
		return state, fmt.Errorf("score fold %s: %w", evt.Type, ErrMatchCompleted)
	}
	next, err := fold(state, evt)
	if err != nil {
		return state, fmt.Errorf("score fold %s: %w", evt.Type, err)
	}
	next.Status = status.Derive(next.Started(), next.Outcome)
	return next, nil
}

func fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case event.TypePointScored:
		var payload PointPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, err
		}
		return foldPoint(state, evt, payload)
	case event.TypeGameAdded:
		var payload GamePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, err
		}
		return foldGame(state, payload)
	case event.TypeSetAdded:
		var payload SetPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, err
		}
		return foldSet(state, payload)
	case event.TypeSegmentEnded:
		return foldSegmentEnd(state)
	case event.TypeLineupSet:
		var payload LineupPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, err
		}
		next, err := state.Lineup.WithSide(payload.SideNumber, payload.ParticipantIDs)
		if err != nil {
			return state, err
		}
		state.Lineup = next
		return state, nil
	case event.TypeParticipantSubstituted:
		var payload SubstitutionPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, err
		}
		next, err := state.Lineup.Apply(payload)
		if err != nil {
			return state, err
		}
		state.Lineup = next
		state.Substitutions = append(state.Substitutions, payload)
		return state, nil
	default:
		return state, fmt.Errorf("unhandled event type %q", evt.Type)
	}
}

func foldPoint(state State, evt event.Event, payload PointPayload) (State, error) {
	if !validSide(payload.Winner) {
		return state, fmt.Errorf("point winner must be 0 or 1, got %d", payload.Winner)
	}
	rule := state.Rule()
	cur := state.Current
	winner := payload.Winner

	record := PointRecord{
		Index:     len(state.Points),
		Winner:    winner,
		Set:       cur.Number,
		Game:      len(cur.GameLog) + 1,
		Result:    payload.Result,
		Stroke:    payload.Stroke,
		Server:    payload.Server,
		Weight:    pointvalue.Weight(rule.Kind, pointvalue.Point{Result: payload.Result, Stroke: payload.Stroke}, state.Config.Multipliers),
		Timestamp: evt.Timestamp,
	}
	if state.Lineup.Configured() {
		active := state.Lineup.Active()
		record.ActivePlayers = &active
	}

	switch rule.Kind {
	case format.SetAggregate:
		cur.Points[winner] += record.Weight
		state.Current = cur
	case format.SetTiebreakOnly:
		record.Tiebreak = true
		cur.Points[winner] += record.Weight
		state.Current = cur
		if side := status.TiebreakWinner(rule.SetTiebreak(), cur.Points); side != status.NoSide {
			state = closeSet(state, side)
		}
	case format.SetStandard, format.SetTimed:
		if cur.InTiebreak {
			record.Tiebreak = true
			cur.Points[winner]++
			state.Current = cur
			if side := status.TiebreakWinner(*rule.Tiebreak, cur.Points); side != status.NoSide {
				state = winTiebreak(state, side, false)
			}
			break
		}
		cur.Points[winner]++
		cur.Streak = cur.Streak.Next(winner)
		state.Current = cur
		if side := status.GameWinner(rule.Game, cur.Points, cur.Streak); side != status.NoSide {
			state = winGame(state, side, false)
		}
	default:
		return state, fmt.Errorf("unknown set kind %q", rule.Kind)
	}

	state.Points = append(state.Points, record)
	return state, nil
}

func foldGame(state State, payload GamePayload) (State, error) {
	if !validSide(payload.Winner) {
		return state, fmt.Errorf("game winner must be 0 or 1, got %d", payload.Winner)
	}
	rule := state.Rule()
	if !rule.CountsGames() {
		return state, fmt.Errorf("games cannot be added to a %s set", rule.Kind)
	}
	winner := payload.Winner
	if state.Current.InTiebreak {
		loser := 1 - winner
		margin := 2
		if rule.Tiebreak.NoAd {
			margin = 1
		}
		cur := state.Current
		cur.Points[winner] = max(rule.Tiebreak.Target, cur.Points[loser]+margin)
		state.Current = cur
		return winTiebreak(state, winner, true), nil
	}
	return winGame(state, winner, true), nil
}

func foldSet(state State, payload SetPayload) (State, error) {
	if !state.Current.Fresh() {
		return state, fmt.Errorf("set %d is already in progress", state.Current.Number)
	}
	if payload.WinningSide != 1 && payload.WinningSide != 2 {
		return state, fmt.Errorf("winning side must be 1 or 2, got %d", payload.WinningSide)
	}
	set := SetScore{
		SetNumber:   state.Current.Number,
		Side1Score:  payload.Side1Score,
		Side2Score:  payload.Side2Score,
		TiebreakSet: state.Rule().Kind == format.SetTiebreakOnly,
		WinningSide: payload.WinningSide,
	}
	if payload.Side1TiebreakScore != nil {
		set.Side1TiebreakScore = intPtr(*payload.Side1TiebreakScore)
	}
	if payload.Side2TiebreakScore != nil {
		set.Side2TiebreakScore = intPtr(*payload.Side2TiebreakScore)
	}
	return finishSet(state, set), nil
}

func foldSegmentEnd(state State) (State, error) {
	if !state.Rule().Timed() {
		return state, fmt.Errorf("set %d is not a timed segment", state.Current.Number)
	}
	totals := segmentTotals(state)
	winner := status.SegmentWinner(totals)
	if winner == status.NoSide {
		return state, fmt.Errorf("segment is tied at %d-%d", totals[0], totals[1])
	}
	set := SetScore{
		SetNumber:   state.Current.Number,
		Side1Score:  totals[0],
		Side2Score:  totals[1],
		Games:       state.Current.GameLog,
		WinningSide: winner + 1,
	}
	return finishSet(state, set), nil
}

// winGame closes the open game for side and cascades into the set.
func winGame(state State, side int, composite bool) State {
	cur := state.Current
	cur.GameLog = append(cur.GameLog, GameScore{
		GameNumber:  len(cur.GameLog) + 1,
		Side1Points: cur.Points[0],
		Side2Points: cur.Points[1],
		WinningSide: side + 1,
		Composite:   composite,
	})
	cur.Games[side]++
	cur.Points = [2]int{}
	cur.Streak = status.Streak{}
	state.Current = cur

	rule := state.Rule()
	if winner := status.SetWinner(rule, cur.Games); winner != status.NoSide {
		return closeSet(state, winner)
	}
	if status.TiebreakTriggered(rule, cur.Games) {
		state.Current.InTiebreak = true
	}
	return state
}

// winTiebreak records the tiebreak as the deciding game and closes the set.
func winTiebreak(state State, side int, composite bool) State {
	cur := state.Current
	cur.GameLog = append(cur.GameLog, GameScore{
		GameNumber:  len(cur.GameLog) + 1,
		Side1Points: cur.Points[0],
		Side2Points: cur.Points[1],
		WinningSide: side + 1,
		Tiebreak:    true,
		Composite:   composite,
	})
	cur.Games[side]++
	state.Current = cur
	return closeSet(state, side)
}

// closeSet turns the open set into a SetScore won by side.
func closeSet(state State, side int) State {
	cur := state.Current
	set := SetScore{
		SetNumber:   cur.Number,
		Games:       cur.GameLog,
		WinningSide: side + 1,
	}
	switch state.Rule().Kind {
	case format.SetTiebreakOnly:
		set.TiebreakSet = true
		if side == 0 {
			set.Side1Score = 1
		} else {
			set.Side2Score = 1
		}
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
	return finishSet(state, set)
}

// finishSet appends a closed set, evaluates the match, and opens the next set.
func finishSet(state State, set SetScore) State {
	state.Sets = append(state.Sets, set)
	if set.WinningSide == 1 || set.WinningSide == 2 {
		state.SetsWon[set.WinningSide-1]++
	}
	var aggregate [2]int
	for _, s := range state.Sets {
		aggregate[0] += s.Side1Score
		aggregate[1] += s.Side2Score
	}
	state.Outcome = status.MatchOutcome(state.Config.Format, state.SetsWon, len(state.Sets), aggregate)
	state.Current = SetProgress{Number: len(state.Sets) + 1}
	return state
}
