package engine

import (
	"encoding/json"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/event"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/format"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/pointvalue"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/status"
)

var testFormats = []string{
	"SET3-S:6/TB7",
	"SET3-S:4NOAD",
	"SET5-S:5-G:3C",
	"SET3-S:6/TB7-F:TB10",
	"SET3XA-S:T10P",
	"SET1-S:TB10",
	"SET3-S:4/TB7@3",
}

func clock() func() time.Time {
	current := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newEngine(t *testing.T, code string, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(clock())}, opts...)
	e, err := New(code, opts...)
	if err != nil {
		t.Fatalf("new engine %s: %v", code, err)
	}
	return e
}

func addPoints(t *testing.T, e *Engine, winners ...int) {
	t.Helper()
	for _, w := range winners {
		if err := e.AddPoint(PointInput{Winner: w}); err != nil {
			t.Fatalf("add point %d: %v", w, err)
		}
	}
}

// playRandom scores up to steps random points, ending segments now and then.
func playRandom(t *testing.T, e *Engine, rng *rand.Rand, steps int) {
	t.Helper()
	for i := 0; i < steps && e.Status() != status.Completed; i++ {
		if rng.IntN(15) == 0 {
			err := e.EndSegment()
			if err != nil && !apperrors.HasCode(err, apperrors.CodeSegmentTied) && !apperrors.HasCode(err, apperrors.CodeSegmentNotTimed) {
				t.Fatalf("end segment: %v", err)
			}
			continue
		}
		in := PointInput{Winner: rng.IntN(2)}
		if rng.IntN(5) == 0 {
			in.Result = "Ace"
		}
		if err := e.AddPoint(in); err != nil {
			t.Fatalf("add point: %v", err)
		}
	}
}

func TestNewRejectsInvalidFormat(t *testing.T) {
	_, err := New("SET3-S:banana")
	if !apperrors.HasCode(err, apperrors.CodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT", err)
	}
	_, err = New("SET3-S:6", WithMultipliers(pointvalue.Rule{Value: 2}))
	if !apperrors.HasCode(err, apperrors.CodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT for bad multiplier", err)
	}
	_, err = NewFromDescriptor(format.Descriptor{BestOf: 0})
	if !apperrors.HasCode(err, apperrors.CodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT for bad descriptor", err)
	}
}

func TestNewFromDescriptorRequiresFormatCode(t *testing.T) {
	consecutiveFinal := format.SetRule{
		Kind:       format.SetStandard,
		GameTarget: 6,
		Game:       format.GameRule{Kind: format.GameConsecutive, Streak: 2},
	}
	desc := format.Descriptor{
		BestOf: 3,
		Set:    format.SetRule{Kind: format.SetStandard, GameTarget: 6, Game: format.GameRule{Kind: format.GameStandard}},
		Final:  &consecutiveFinal,
	}
	if _, err := NewFromDescriptor(desc); !apperrors.HasCode(err, apperrors.CodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT", err)
	}

	parsed, err := format.Parse("SET3-S:6/TB7-F:TB10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	parsed.Set.Tiebreak.At = 0
	e, err := NewFromDescriptor(parsed, WithClock(clock()))
	if err != nil {
		t.Fatalf("new from descriptor: %v", err)
	}
	if e.Format() != "SET3-S:6/TB7-F:TB10" {
		t.Fatalf("format = %q", e.Format())
	}
	if err := e.AddSet(SetInput{Side1Score: 6, Side2Score: 0}); err != nil {
		t.Fatalf("add set: %v", err)
	}
	if err := e.AddSet(SetInput{Side1Score: 0, Side2Score: 6}); err != nil {
		t.Fatalf("add set: %v", err)
	}
	addPoints(t, e, 0, 0)
	restored, err := Restore(e.State())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	before, after := e.Scoreboard(ScoreboardOptions{}), restored.Scoreboard(ScoreboardOptions{})
	if before != after {
		t.Fatalf("scoreboard after restore = %q, want %q", after, before)
	}
	if !reflect.DeepEqual(restored.Descriptor(), e.Descriptor()) {
		t.Fatalf("descriptor after restore = %+v, want %+v", restored.Descriptor(), e.Descriptor())
	}
}

func TestFormatRoundTrips(t *testing.T) {
	for _, code := range testFormats {
		e := newEngine(t, code)
		again, err := New(e.Format())
		if err != nil {
			t.Fatalf("reparse %s: %v", e.Format(), err)
		}
		if !reflect.DeepEqual(e.Descriptor(), again.Descriptor()) {
			t.Fatalf("descriptor for %s changed after round trip", code)
		}
	}
}

func TestScoreboardExamples(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	addPoints(t, e, 0, 0, 0, 1, 1, 1)
	if got := e.Scoreboard(ScoreboardOptions{}); got != "0-0 (40-40)" {
		t.Fatalf("scoreboard = %q", got)
	}
	addPoints(t, e, 0)
	if got := e.Scoreboard(ScoreboardOptions{}); got != "0-0 (A-40)" {
		t.Fatalf("scoreboard = %q", got)
	}
	if got := e.Scoreboard(ScoreboardOptions{Perspective: 2}); got != "0-0 (40-A)" {
		t.Fatalf("side 2 scoreboard = %q", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	for i, code := range testFormats {
		t.Run(code, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(uint64(i), 7))
			e := newEngine(t, code, WithMultipliers(pointvalue.Rule{Results: []string{"Ace"}, Value: 2}))
			playRandom(t, e, rng, 90)
			e.Undo(2)

			data, err := json.Marshal(e.State())
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var snap Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			restored := newEngine(t, "SET1-S:6")
			if err := restored.SetState(snap); err != nil {
				t.Fatalf("set state: %v", err)
			}
			if !reflect.DeepEqual(restored.Score(), e.Score()) {
				t.Fatalf("score = %+v, want %+v", restored.Score(), e.Score())
			}
			if restored.Scoreboard(ScoreboardOptions{}) != e.Scoreboard(ScoreboardOptions{}) {
				t.Fatalf("scoreboard = %q, want %q", restored.Scoreboard(ScoreboardOptions{}), e.Scoreboard(ScoreboardOptions{}))
			}
			if restored.Format() != e.Format() || restored.CanRedo() != e.CanRedo() {
				t.Fatalf("format = %s redo = %v", restored.Format(), restored.CanRedo())
			}
			if !restored.Redo(2) || !e.Redo(2) {
				t.Fatal("expected redo after round trip")
			}
			if !reflect.DeepEqual(restored.Score(), e.Score()) {
				t.Fatal("score differs after redo")
			}
		})
	}
}

func TestUndoRedoInverse(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	for n := 0; n <= 30; n++ {
		e := newEngine(t, "SET3-S:6/TB7")
		for i := 0; i < n; i++ {
			addPoints(t, e, rng.IntN(2))
		}
		wantScore := e.Score()
		wantPoints := len(e.History())
		wantLedger := len(e.Ledger())

		undone := e.Undo(n)
		if undone != (n > 0) {
			t.Fatalf("undo(%d) = %v", n, undone)
		}
		if n > 0 && len(e.Ledger()) != 0 {
			t.Fatalf("ledger = %d after full undo", len(e.Ledger()))
		}
		e.Redo(n)

		if !reflect.DeepEqual(e.Score(), wantScore) {
			t.Fatalf("n=%d score = %+v, want %+v", n, e.Score(), wantScore)
		}
		if len(e.History()) != wantPoints || len(e.Ledger()) != wantLedger {
			t.Fatalf("n=%d points = %d ledger = %d", n, len(e.History()), len(e.Ledger()))
		}
	}
}

func TestReplayDeterminism(t *testing.T) {
	for i, code := range testFormats {
		rng := rand.New(rand.NewPCG(uint64(i)+100, 3))
		e := newEngine(t, code)
		playRandom(t, e, rng, 120)

		fresh := newEngine(t, code)
		if err := fresh.SetState(Snapshot{Format: code, Ledger: e.Ledger()}); err != nil {
			t.Fatalf("%s replay: %v", code, err)
		}
		if !reflect.DeepEqual(fresh.Score(), e.Score()) {
			t.Fatalf("%s replayed score = %+v, want %+v", code, fresh.Score(), e.Score())
		}
		if fresh.Status() != e.Status() || fresh.WinningSide() != e.WinningSide() {
			t.Fatalf("%s status = %s/%d, want %s/%d", code, fresh.Status(), fresh.WinningSide(), e.Status(), e.WinningSide())
		}
	}
}

func TestUndoAcrossSetBoundary(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	for i := 0; i < 24; i++ {
		addPoints(t, e, 0)
	}
	if sets := e.Score().Sets; sets[0].WinningSide != 1 {
		t.Fatalf("set 1 winner = %d, want 1", sets[0].WinningSide)
	}

	if !e.Undo(3) {
		t.Fatal("undo failed")
	}
	score := e.Score()
	if len(score.Sets) != 1 || score.Sets[0].WinningSide != 0 {
		t.Fatalf("sets = %+v, want reopened first set", score.Sets)
	}
	if len(e.History()) != 21 {
		t.Fatalf("points = %d, want 21", len(e.History()))
	}
	if score.Games != [2]int{5, 0} || score.Points != [2]int{1, 0} {
		t.Fatalf("games = %v points = %v", score.Games, score.Points)
	}
	if got := e.Scoreboard(ScoreboardOptions{}); got != "5-0 (15-0)" {
		t.Fatalf("scoreboard = %q", got)
	}
}

func TestUndoRedoClampAndUnderflow(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	if e.Undo(1) || e.Redo(1) {
		t.Fatal("expected nothing to undo or redo")
	}
	addPoints(t, e, 0, 1)
	if e.Undo(0) || e.Undo(-1) {
		t.Fatal("non-positive undo should do nothing")
	}
	if !e.Undo(10) {
		t.Fatal("undo should clamp")
	}
	if len(e.Ledger()) != 0 || e.Status() != status.ToBePlayed {
		t.Fatalf("ledger = %d status = %s", len(e.Ledger()), e.Status())
	}
	if !e.Redo(10) || len(e.Ledger()) != 2 {
		t.Fatalf("redo should clamp, ledger = %d", len(e.Ledger()))
	}
}

func TestNewEventClearsRedo(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	addPoints(t, e, 0, 0, 0)
	e.Undo(2)
	if !e.CanRedo() {
		t.Fatal("expected redo stack")
	}
	addPoints(t, e, 1)
	if e.CanRedo() || e.Redo(1) {
		t.Fatal("redo stack should be cleared by a new point")
	}
	if got := e.Scoreboard(ScoreboardOptions{}); got != "0-0 (15-15)" {
		t.Fatalf("scoreboard = %q", got)
	}
}

func TestFailedCallsLeaveLedgerUntouched(t *testing.T) {
	e := newEngine(t, "SET1-S:6")
	addPoints(t, e, 0)
	before := e.State()

	if err := e.AddPoint(PointInput{Winner: 2}); !apperrors.HasCode(err, apperrors.CodeInvalidPointInput) {
		t.Fatalf("err = %v, want INVALID_POINT_INPUT", err)
	}
	if err := e.EndSegment(); !apperrors.HasCode(err, apperrors.CodeSegmentNotTimed) {
		t.Fatalf("err = %v, want SEGMENT_NOT_TIMED", err)
	}
	if err := e.AddSet(SetInput{Side1Score: 6, Side2Score: 0}); !apperrors.HasCode(err, apperrors.CodeInvalidSetInput) {
		t.Fatalf("err = %v, want INVALID_SET_INPUT", err)
	}
	if !reflect.DeepEqual(e.State(), before) {
		t.Fatal("state changed after rejected calls")
	}
}

func TestCompletedMatchRejectsPoints(t *testing.T) {
	e := newEngine(t, "SET1-S:6")
	if err := e.AddSet(SetInput{Side1Score: 3, Side2Score: 6}); err != nil {
		t.Fatalf("add set: %v", err)
	}
	if e.Status() != status.Completed || e.WinningSide() != 2 {
		t.Fatalf("status = %s winner = %d", e.Status(), e.WinningSide())
	}
	if err := e.AddPoint(PointInput{Winner: 0}); !apperrors.HasCode(err, apperrors.CodeMatchCompleted) {
		t.Fatalf("err = %v, want MATCH_COMPLETED", err)
	}
	if !e.Undo(1) || e.Status() != status.ToBePlayed {
		t.Fatalf("undo of composite set should reopen the match, status = %s", e.Status())
	}
}

func TestAddGameIsOneLedgerEntry(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	addPoints(t, e, 0, 0)
	if err := e.AddGame(GameInput{Winner: 1}); err != nil {
		t.Fatalf("add game: %v", err)
	}
	if got := e.Scoreboard(ScoreboardOptions{}); got != "0-1" {
		t.Fatalf("scoreboard = %q", got)
	}
	e.Undo(1)
	if got := e.Scoreboard(ScoreboardOptions{}); got != "0-0 (30-0)" {
		t.Fatalf("scoreboard after undo = %q", got)
	}
}

func TestSegmentTiedKeepsPlaying(t *testing.T) {
	e := newEngine(t, "SET3XA-S:T10P")
	addPoints(t, e, 0, 1)
	err := e.EndSegment()
	if !apperrors.HasCode(err, apperrors.CodeSegmentTied) {
		t.Fatalf("err = %v, want SEGMENT_TIED", err)
	}
	var domainErr *apperrors.Error
	if de, ok := err.(*apperrors.Error); ok {
		domainErr = de
	}
	if domainErr == nil || domainErr.Metadata["Side1"] != "1" || domainErr.Metadata["Side2"] != "1" {
		t.Fatalf("metadata = %+v", domainErr)
	}
	addPoints(t, e, 1)
	if err := e.EndSegment(); err != nil {
		t.Fatalf("end segment: %v", err)
	}
	if got := e.Scoreboard(ScoreboardOptions{}); got != "1-2" {
		t.Fatalf("scoreboard = %q", got)
	}
}

func TestLineupAndSubstitution(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	if err := e.Substitute(lineup.Substitution{SideNumber: 1, OutParticipantID: "a", InParticipantID: "b"}); err != nil {
		t.Fatalf("substitute without lineup should be a no-op: %v", err)
	}
	if len(e.Ledger()) != 0 {
		t.Fatal("no-op substitution reached the ledger")
	}

	if err := e.SetLineUp(1, []string{"p1", "p2"}); err != nil {
		t.Fatalf("lineup 1: %v", err)
	}
	if err := e.SetLineUp(2, []string{"p3", "p4"}); err != nil {
		t.Fatalf("lineup 2: %v", err)
	}
	addPoints(t, e, 0)
	if err := e.Substitute(lineup.Substitution{SideNumber: 2, OutParticipantID: "p4", InParticipantID: "p5"}); err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if got := e.ActivePlayers(); !reflect.DeepEqual(got.Side2, []string{"p3", "p5"}) {
		t.Fatalf("side 2 = %v", got.Side2)
	}
	err := e.Substitute(lineup.Substitution{SideNumber: 2, OutParticipantID: "p4", InParticipantID: "p6"})
	if !apperrors.HasCode(err, apperrors.CodeInvalidSubstitution) {
		t.Fatalf("err = %v, want INVALID_SUBSTITUTION", err)
	}
	if err := e.SetLineUp(1, []string{}); !apperrors.HasCode(err, apperrors.CodeInvalidLineup) {
		t.Fatalf("err = %v, want INVALID_LINEUP", err)
	}

	snap := e.State()
	if len(snap.History.Substitutions) != 1 || snap.History.Substitutions[0].BeforePointIndex != 1 {
		t.Fatalf("substitutions = %+v", snap.History.Substitutions)
	}
	e.Undo(1)
	if got := e.ActivePlayers(); !reflect.DeepEqual(got.Side2, []string{"p3", "p4"}) {
		t.Fatalf("side 2 after undo = %v", got.Side2)
	}
}

func TestSubstituteAgainstUnsetSide(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	if err := e.SetLineUp(1, []string{"p1"}); err != nil {
		t.Fatalf("lineup 1: %v", err)
	}
	err := e.Substitute(lineup.Substitution{SideNumber: 2, OutParticipantID: "p2", InParticipantID: "p3"})
	if !apperrors.HasCode(err, apperrors.CodeInvalidSubstitution) {
		t.Fatalf("err = %v, want INVALID_SUBSTITUTION", err)
	}
	if len(e.Ledger()) != 1 {
		t.Fatalf("ledger = %d entries, want 1", len(e.Ledger()))
	}
}

func TestSetStateKeepsPriorStateOnError(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	addPoints(t, e, 0, 0)
	before := e.Scoreboard(ScoreboardOptions{})

	good := e.State()
	badPayload := good
	badPayload.Ledger = append([]event.Event(nil), good.Ledger...)
	badPayload.Ledger[1].PayloadJSON = json.RawMessage(`{"winner":7}`)

	gap := good
	gap.Ledger = []event.Event{good.Ledger[1]}

	tests := []struct {
		name string
		snap Snapshot
	}{
		{"bad format", Snapshot{Format: "nope"}},
		{"bad payload", badPayload},
		{"sequence gap", gap},
		{"bad redo", Snapshot{Format: good.Format, Ledger: good.Ledger, Redo: []event.Event{{Seq: 9, Type: event.TypePointScored}}}},
		{"bad multiplier", Snapshot{Format: good.Format, Options: SnapshotOptions{Multipliers: []pointvalue.Rule{{Value: 1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetState(tt.snap)
			if !apperrors.HasCode(err, apperrors.CodeStateDeserialization) {
				t.Fatalf("err = %v, want STATE_DESERIALIZATION_ERROR", err)
			}
			if got := e.Scoreboard(ScoreboardOptions{}); got != before {
				t.Fatalf("scoreboard = %q, want %q", got, before)
			}
		})
	}
}

func TestRestore(t *testing.T) {
	e := newEngine(t, "SET5-S:5-G:3C", WithMatchID("m-1"))
	addPoints(t, e, 0, 0, 0)
	restored, err := Restore(e.State())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.MatchID() != "m-1" || restored.Scoreboard(ScoreboardOptions{}) != "1-0" {
		t.Fatalf("restored = %s %q", restored.MatchID(), restored.Scoreboard(ScoreboardOptions{}))
	}
	if restored.Ledger()[0].MatchID != "m-1" {
		t.Fatalf("ledger match id = %q", restored.Ledger()[0].MatchID)
	}
}

func TestTimestampsComeFromClock(t *testing.T) {
	e := newEngine(t, "SET3-S:6/TB7")
	addPoints(t, e, 0, 1)
	history := e.History()
	if !history[1].Timestamp.After(history[0].Timestamp) {
		t.Fatalf("timestamps = %v, %v", history[0].Timestamp, history[1].Timestamp)
	}
	e.Undo(1)
	e.Redo(1)
	if !e.History()[1].Timestamp.Equal(history[1].Timestamp) {
		t.Fatal("replay should reuse stored timestamps")
	}
}
