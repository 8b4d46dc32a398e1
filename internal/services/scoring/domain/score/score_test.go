package score

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/command"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

func fixedNow() time.Time {
	return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
}

func newState(t *testing.T, code string, rules ...pointvalue.Rule) State {
	t.Helper()
	desc, err := format.Parse(code)
	if err != nil {
		t.Fatalf("parse %s: %v", code, err)
	}
	return NewState(Config{Format: desc, Multipliers: rules})
}

func decide(t *testing.T, state State, typ command.Type, payload any) command.Decision {
	t.Helper()
	cmd, err := command.New("match-1", typ, payload)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	return Decide(state, cmd, fixedNow)
}

func apply(t *testing.T, state State, typ command.Type, payload any) State {
	t.Helper()
	decision := decide(t, state, typ, payload)
	if decision.Rejected() {
		t.Fatalf("%s rejected: %+v", typ, decision.Rejections)
	}
	for _, evt := range decision.Events {
		next, err := Fold(state, evt)
		if err != nil {
			t.Fatalf("fold %s: %v", evt.Type, err)
		}
		state = next
	}
	return state
}

func expectRejection(t *testing.T, state State, typ command.Type, payload any, code apperrors.Code) {
	t.Helper()
	decision := decide(t, state, typ, payload)
	if !decision.Rejected() {
		t.Fatalf("%s accepted, want %s", typ, code)
	}
	if got := decision.Rejections[0].Code; got != string(code) {
		t.Fatalf("rejection = %s, want %s", got, code)
	}
}

func points(t *testing.T, state State, winners ...int) State {
	t.Helper()
	for _, w := range winners {
		state = apply(t, state, command.TypeScorePoint, PointPayload{Winner: w})
	}
	return state
}

func repeat(side, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = side
	}
	return out
}

func TestDeuceAndAdvantage(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	state = points(t, state, 0, 0, 0, 1, 1, 1)
	if got := state.Scoreboard(false); got != "0-0 (40-40)" {
		t.Fatalf("scoreboard = %q, want %q", got, "0-0 (40-40)")
	}
	state = points(t, state, 0)
	if got := state.Scoreboard(false); got != "0-0 (A-40)" {
		t.Fatalf("scoreboard = %q, want %q", got, "0-0 (A-40)")
	}
	if got := state.Scoreboard(true); got != "0-0 (40-A)" {
		t.Fatalf("flipped scoreboard = %q", got)
	}
	state = points(t, state, 1, 1, 1)
	if state.Current.Games != [2]int{0, 1} {
		t.Fatalf("games = %v, want [0 1]", state.Current.Games)
	}
	if got := state.Scoreboard(false); got != "0-1" {
		t.Fatalf("scoreboard = %q, want 0-1", got)
	}
}

func TestNoAdDecidesAtDeuce(t *testing.T) {
	state := newState(t, "SET3-S:4NOAD")
	state = points(t, state, 0, 0, 0, 1, 1, 1)
	if state.Current.Games != [2]int{0, 0} {
		t.Fatalf("games = %v before decider", state.Current.Games)
	}
	state = points(t, state, 0)
	if state.Current.Games != [2]int{1, 0} {
		t.Fatalf("games = %v, want [1 0]", state.Current.Games)
	}
}

func TestConsecutiveCountResetsStreak(t *testing.T) {
	state := newState(t, "SET5-S:5-G:3C")
	state = points(t, state, 0, 0, 1)
	if state.Current.Games != [2]int{0, 0} {
		t.Fatalf("games = %v after reset", state.Current.Games)
	}
	if state.Current.Streak != (status.Streak{Side: 1, Count: 1}) {
		t.Fatalf("streak = %+v", state.Current.Streak)
	}
	state = points(t, state, 0, 0)
	if state.Current.Games != [2]int{0, 0} {
		t.Fatalf("games = %v before third in a row", state.Current.Games)
	}
	if got := state.Scoreboard(false); got != "0-0 (4-1)" {
		t.Fatalf("scoreboard = %q, want cumulative points", got)
	}
	state = points(t, state, 0)
	if state.Current.Games != [2]int{1, 0} {
		t.Fatalf("games = %v, want [1 0]", state.Current.Games)
	}
}

func TestTiebreakAtSixAll(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	for i := 0; i < 6; i++ {
		state = points(t, state, repeat(0, 4)...)
		state = points(t, state, repeat(1, 4)...)
	}
	if !state.Current.InTiebreak {
		t.Fatalf("expected tiebreak at %v", state.Current.Games)
	}
	state = points(t, state, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1)
	if !state.Current.InTiebreak || state.Current.Points != [2]int{6, 5} {
		t.Fatalf("tiebreak points = %v", state.Current.Points)
	}
	if got := state.Scoreboard(false); got != "6-6 (6-5)" {
		t.Fatalf("scoreboard = %q", got)
	}
	state = points(t, state, 0)

	if len(state.Sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(state.Sets))
	}
	set := state.Sets[0]
	if set.Side1Score != 7 || set.Side2Score != 6 || set.WinningSide != 1 {
		t.Fatalf("set = %+v", set)
	}
	if set.Side1TiebreakScore == nil || *set.Side1TiebreakScore != 7 || set.Side2TiebreakScore == nil || *set.Side2TiebreakScore != 5 {
		t.Fatalf("tiebreak scores = %v/%v", set.Side1TiebreakScore, set.Side2TiebreakScore)
	}
	if got := state.Scoreboard(false); got != "7-6(5)" {
		t.Fatalf("scoreboard = %q, want 7-6(5)", got)
	}
	if got := state.Scoreboard(true); got != "6(5)-7" {
		t.Fatalf("flipped scoreboard = %q, want 6(5)-7", got)
	}
	last := state.Points[len(state.Points)-1]
	if !last.Tiebreak || last.Weight != 1 {
		t.Fatalf("last point = %+v", last)
	}
}

func TestSetAndMatchCompletion(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	state = points(t, state, repeat(0, 24)...)
	if len(state.Sets) != 1 || state.Sets[0].WinningSide != 1 {
		t.Fatalf("sets = %+v", state.Sets)
	}
	if state.SetsWon != [2]int{1, 0} || state.Current.Number != 2 {
		t.Fatalf("sets won = %v, current = %d", state.SetsWon, state.Current.Number)
	}
	if state.Status != status.InProgress {
		t.Fatalf("status = %s", state.Status)
	}
	if got := state.Scoreboard(false); got != "6-0" {
		t.Fatalf("scoreboard = %q", got)
	}

	state = points(t, state, repeat(0, 24)...)
	if !state.Completed() || state.WinningSide() != 1 || state.Status != status.Completed {
		t.Fatalf("completed = %v, winner = %d, status = %s", state.Completed(), state.WinningSide(), state.Status)
	}
	score := state.Score()
	if len(score.Sets) != 2 {
		t.Fatalf("score sets = %d, want 2 closed sets", len(score.Sets))
	}
	expectRejection(t, state, command.TypeScorePoint, PointPayload{Winner: 1}, apperrors.CodeMatchCompleted)
	expectRejection(t, state, command.TypeAddGame, GamePayload{Winner: 1}, apperrors.CodeMatchCompleted)
}

func TestInitialState(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	if state.Status != status.ToBePlayed {
		t.Fatalf("status = %s", state.Status)
	}
	if got := state.Scoreboard(false); got != "0-0" {
		t.Fatalf("scoreboard = %q", got)
	}
	score := state.Score()
	if len(score.Sets) != 1 || score.Sets[0].WinningSide != 0 {
		t.Fatalf("score sets = %+v", score.Sets)
	}
	if score.PointsDisplay != [2]string{"0", "0"} {
		t.Fatalf("points display = %v", score.PointsDisplay)
	}
}

func TestAddGameInTiebreakSynthesizesPoints(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	for i := 0; i < 6; i++ {
		state = apply(t, state, command.TypeAddGame, GamePayload{Winner: 0})
		state = apply(t, state, command.TypeAddGame, GamePayload{Winner: 1})
	}
	if !state.Current.InTiebreak {
		t.Fatal("expected tiebreak")
	}
	state = points(t, state, 1, 1, 1, 1, 1, 0)
	state = apply(t, state, command.TypeAddGame, GamePayload{Winner: 0})

	set := state.Sets[0]
	if *set.Side1TiebreakScore != 7 || *set.Side2TiebreakScore != 5 {
		t.Fatalf("tiebreak = %d-%d, want 7-5", *set.Side1TiebreakScore, *set.Side2TiebreakScore)
	}
	if got := state.Scoreboard(false); got != "7-6(5)" {
		t.Fatalf("scoreboard = %q", got)
	}
	composite := set.Games[len(set.Games)-1]
	if !composite.Composite || !composite.Tiebreak {
		t.Fatalf("tiebreak game = %+v", composite)
	}
}

func TestAddGameDropsPartialPoints(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	state = points(t, state, 1, 1)
	state = apply(t, state, command.TypeAddGame, GamePayload{Winner: 0})
	if state.Current.Games != [2]int{1, 0} || state.Current.Points != [2]int{} {
		t.Fatalf("games = %v, points = %v", state.Current.Games, state.Current.Points)
	}
	if len(state.Points) != 2 {
		t.Fatalf("history = %d points, want 2", len(state.Points))
	}
}

func TestAddGameRejectedOutsideGameSets(t *testing.T) {
	expectRejection(t, newState(t, "SET1-S:TB10"), command.TypeAddGame, GamePayload{Winner: 0}, apperrors.CodeInvalidGameInput)
	expectRejection(t, newState(t, "SET3XA-S:T10P"), command.TypeAddGame, GamePayload{Winner: 0}, apperrors.CodeInvalidGameInput)
	expectRejection(t, newState(t, "SET3-S:6"), command.TypeAddGame, GamePayload{Winner: 3}, apperrors.CodeInvalidGameInput)
}

func TestAddSet(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7-F:TB10")
	state = apply(t, state, command.TypeAddSet, SetPayload{Side1Score: 6, Side2Score: 3})
	if state.Sets[0].WinningSide != 1 {
		t.Fatalf("derived winner = %d", state.Sets[0].WinningSide)
	}
	tb1, tb2 := 4, 7
	state = apply(t, state, command.TypeAddSet, SetPayload{Side1Score: 6, Side2Score: 7, Side1TiebreakScore: &tb1, Side2TiebreakScore: &tb2})
	if got := state.Scoreboard(false); got != "6-3 6(4)-7" {
		t.Fatalf("scoreboard = %q", got)
	}

	if state.Rule().Kind != format.SetTiebreakOnly {
		t.Fatalf("deciding set kind = %s", state.Rule().Kind)
	}
	state = points(t, state, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1)
	if got := state.Scoreboard(false); got != "6-3 6(4)-7 [8-8]" {
		t.Fatalf("scoreboard = %q", got)
	}
	state = points(t, state, 0, 0)
	if got := state.Scoreboard(false); got != "6-3 6(4)-7 [10-8]" {
		t.Fatalf("scoreboard = %q", got)
	}
	if state.WinningSide() != 1 {
		t.Fatalf("winner = %d", state.WinningSide())
	}
}

func TestAddSetRejections(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	expectRejection(t, state, command.TypeAddSet, SetPayload{Side1Score: 6, Side2Score: 6}, apperrors.CodeInvalidSetInput)
	expectRejection(t, state, command.TypeAddSet, SetPayload{Side1Score: 6, Side2Score: 2, WinningSide: 2}, apperrors.CodeInvalidSetInput)
	expectRejection(t, state, command.TypeAddSet, SetPayload{Side1Score: -1, Side2Score: 6}, apperrors.CodeInvalidSetInput)
	expectRejection(t, state, command.TypeAddSet, SetPayload{Side1Score: 6, Side2Score: 2, WinningSide: 3}, apperrors.CodeInvalidSetInput)

	started := points(t, state, 0)
	expectRejection(t, started, command.TypeAddSet, SetPayload{Side1Score: 6, Side2Score: 2}, apperrors.CodeInvalidSetInput)
}

func TestAggregateSegments(t *testing.T) {
	ace := pointvalue.Rule{Results: []string{"Ace"}, Value: 2}
	state := newState(t, "SET3XA-S:T10P", ace)

	state = apply(t, state, command.TypeScorePoint, PointPayload{Winner: 0, Result: "Ace"})
	state = points(t, state, 1)
	if state.Current.Points != [2]int{2, 1} {
		t.Fatalf("totals = %v, want [2 1]", state.Current.Points)
	}
	if got := state.Scoreboard(false); got != "2-1" {
		t.Fatalf("scoreboard = %q", got)
	}
	state = apply(t, state, command.TypeEndSegment, nil)

	state = points(t, state, 1, 1, 1)
	state = apply(t, state, command.TypeEndSegment, nil)

	state = points(t, state, 0, 1)
	expectRejection(t, state, command.TypeEndSegment, nil, apperrors.CodeSegmentTied)
	state = points(t, state, 0)
	state = apply(t, state, command.TypeEndSegment, nil)

	if state.SetsWon != [2]int{2, 1} {
		t.Fatalf("sets won = %v", state.SetsWon)
	}
	if !state.Completed() || state.WinningSide() != 2 {
		t.Fatalf("aggregate winner = %d, want 2 on total points", state.WinningSide())
	}
	if got := state.Scoreboard(false); got != "2-1 0-3 2-1" {
		t.Fatalf("scoreboard = %q", got)
	}
}

func TestTimedSegmentCountsGames(t *testing.T) {
	state := newState(t, "SET1-S:T10")
	state = points(t, state, repeat(1, 9)...)
	if state.Current.Games != [2]int{0, 2} {
		t.Fatalf("games = %v", state.Current.Games)
	}
	state = apply(t, state, command.TypeEndSegment, nil)
	if state.WinningSide() != 2 || state.Sets[0].Side2Score != 2 {
		t.Fatalf("winner = %d, set = %+v", state.WinningSide(), state.Sets[0])
	}
}

func TestEndSegmentRejectedOnStandardSet(t *testing.T) {
	expectRejection(t, newState(t, "SET3-S:6/TB7"), command.TypeEndSegment, nil, apperrors.CodeSegmentNotTimed)
}

func TestPointInputValidation(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	expectRejection(t, state, command.TypeScorePoint, PointPayload{Winner: 2}, apperrors.CodeInvalidPointInput)
	server := 5
	expectRejection(t, state, command.TypeScorePoint, PointPayload{Winner: 0, Server: &server}, apperrors.CodeInvalidPointInput)

	decision := Decide(state, command.Command{Type: command.TypeScorePoint, PayloadJSON: []byte("{")}, fixedNow)
	if !decision.Rejected() || decision.Rejections[0].Code != command.RejectionCodePayloadDecodeFailed {
		t.Fatalf("decision = %+v", decision)
	}
	decision = Decide(state, command.Command{Type: "point.steal"}, fixedNow)
	if !decision.Rejected() || decision.Rejections[0].Code != command.RejectionCodeCommandTypeUnsupported {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestLineupSnapshotsAndSubstitution(t *testing.T) {
	state := newState(t, "SET3-S:6/TB7")
	expectRejection(t, state, command.TypeSubstitute, SubstitutionPayload{SideNumber: 1, OutParticipantID: "a", InParticipantID: "c"}, apperrors.CodeInvalidSubstitution)

	state = apply(t, state, command.TypeSetLineup, LineupPayload{SideNumber: 1, ParticipantIDs: []string{"a"}})
	state = apply(t, state, command.TypeSetLineup, LineupPayload{SideNumber: 2, ParticipantIDs: []string{"b"}})
	if state.Status != status.ToBePlayed {
		t.Fatalf("lineup should not start the match, status = %s", state.Status)
	}
	state = points(t, state, 0)
	state = apply(t, state, command.TypeSubstitute, SubstitutionPayload{SideNumber: 1, OutParticipantID: "a", InParticipantID: "c"})
	state = points(t, state, 1)

	if got := state.Points[0].ActivePlayers; got == nil || !reflect.DeepEqual(got.Side1, []string{"a"}) {
		t.Fatalf("first point players = %+v", got)
	}
	if got := state.Points[1].ActivePlayers; !reflect.DeepEqual(got.Side1, []string{"c"}) || !reflect.DeepEqual(got.Side2, []string{"b"}) {
		t.Fatalf("second point players = %+v", got)
	}
	if len(state.Substitutions) != 1 || state.Substitutions[0].BeforePointIndex != 1 {
		t.Fatalf("substitutions = %+v", state.Substitutions)
	}
	expectRejection(t, state, command.TypeSubstitute, SubstitutionPayload{SideNumber: 1, OutParticipantID: "a", InParticipantID: "d"}, apperrors.CodeInvalidSubstitution)
	expectRejection(t, state, command.TypeSetLineup, LineupPayload{SideNumber: 1, ParticipantIDs: []string{"x", "y", "z"}}, apperrors.CodeInvalidLineup)
}

func TestFoldDoesNotModifyInput(t *testing.T) {
	state := points(t, newState(t, "SET3-S:6/TB7"), 0, 1, 0)
	payload, _ := json.Marshal(PointPayload{Winner: 0})
	next, err := Fold(state, event.Event{Seq: 4, Type: event.TypePointScored, PayloadJSON: payload, Timestamp: fixedNow()})
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if len(state.Points) != 3 || state.Current.Points != [2]int{2, 1} {
		t.Fatalf("input changed: %d points, %v", len(state.Points), state.Current.Points)
	}
	if next.Current.Games != [2]int{0, 0} || next.Current.Points != [2]int{3, 1} {
		t.Fatalf("next = %v / %v", next.Current.Games, next.Current.Points)
	}
	if !next.Points[3].Timestamp.Equal(fixedNow()) {
		t.Fatalf("timestamp = %v", next.Points[3].Timestamp)
	}
}

func TestFoldRejectsUnknownAndCompleted(t *testing.T) {
	state := newState(t, "SET1-S:6")
	if _, err := Fold(state, event.Event{Seq: 1, Type: "bogus"}); err == nil {
		t.Fatal("expected error for unknown event")
	}
	state = points(t, state, repeat(0, 24)...)
	payload, _ := json.Marshal(PointPayload{Winner: 0})
	if _, err := Fold(state, event.Event{Seq: 25, Type: event.TypePointScored, PayloadJSON: payload}); err == nil {
		t.Fatal("expected error folding into completed match")
	}
}

func TestAdvantageSetWithoutTiebreak(t *testing.T) {
	state := newState(t, "SET1-S:6")
	for i := 0; i < 6; i++ {
		state = points(t, state, repeat(0, 4)...)
		state = points(t, state, repeat(1, 4)...)
	}
	if state.Current.InTiebreak {
		t.Fatal("advantage set should not enter a tiebreak")
	}
	state = points(t, state, repeat(0, 8)...)
	if got := state.Scoreboard(false); got != "8-6" {
		t.Fatalf("scoreboard = %q, want 8-6", got)
	}
}
