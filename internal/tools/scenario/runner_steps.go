package scenario

import (
	"fmt"
	"strings"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/engine"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/domain/lineup"
)

func (r *Runner) runStep(match *engine.Engine, step Step) error {
	switch step.Kind {
	case "expect_scoreboard", "expect_games", "expect_sets", "expect_status", "expect_winner":
		if step.ExpectError != "" {
			return fmt.Errorf("expect_error(%q) must precede a scoring step", step.ExpectError)
		}
		return r.runExpectation(match, step)
	}

	err := r.runAction(match, step)
	if step.ExpectError == "" {
		return err
	}
	if err == nil {
		return r.assertions.Assertf("%s: expected error %s, got success", step.Kind, step.ExpectError)
	}
	if got := apperrors.CodeOf(err); string(got) != step.ExpectError {
		return r.assertions.Assertf("%s: error code = %s, want %s (%v)", step.Kind, got, step.ExpectError, err)
	}
	r.logf("%s failed as expected: %v", step.Kind, err)
	return nil
}

func (r *Runner) runAction(match *engine.Engine, step Step) error {
	switch step.Kind {
	case "point":
		in, err := pointInput(step.Args)
		if err != nil {
			return err
		}
		return match.AddPoint(in)
	case "points":
		winners, err := intList(step.Args, "winners")
		if err != nil {
			return err
		}
		for _, winner := range winners {
			if err := match.AddPoint(engine.PointInput{Winner: winner}); err != nil {
				return err
			}
		}
		return nil
	case "game":
		winner, err := intArg(step.Args, "winner", 0)
		if err != nil {
			return err
		}
		return match.AddGame(engine.GameInput{Winner: winner})
	case "set":
		in, err := setInput(step.Args)
		if err != nil {
			return err
		}
		return match.AddSet(in)
	case "end_segment":
		return match.EndSegment()
	case "undo":
		count, err := intArg(step.Args, "count", 1)
		if err != nil {
			return err
		}
		if !match.Undo(count) {
			return apperrors.New(apperrors.CodeUndoUnderflow, "nothing to undo")
		}
		return nil
	case "redo":
		count, err := intArg(step.Args, "count", 1)
		if err != nil {
			return err
		}
		if !match.Redo(count) {
			return apperrors.New(apperrors.CodeRedoUnderflow, "nothing to redo")
		}
		return nil
	case "lineup":
		side, err := intArg(step.Args, "side", 0)
		if err != nil {
			return err
		}
		ids, err := stringList(step.Args, "participants")
		if err != nil {
			return err
		}
		return match.SetLineUp(side, ids)
	case "substitute":
		side, err := intArg(step.Args, "side", 0)
		if err != nil {
			return err
		}
		return match.Substitute(lineup.Substitution{
			SideNumber:       side,
			OutParticipantID: stringArg(step.Args, "out"),
			InParticipantID:  stringArg(step.Args, "in"),
		})
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runExpectation(match *engine.Engine, step Step) error {
	switch step.Kind {
	case "expect_scoreboard":
		perspective, err := intArg(step.Args, "perspective", 1)
		if err != nil {
			return err
		}
		want := stringArg(step.Args, "scoreboard")
		got := match.Scoreboard(engine.ScoreboardOptions{Perspective: perspective})
		if got != want {
			return r.assertions.Assertf("scoreboard = %q, want %q", got, want)
		}
	case "expect_games":
		want, err := sidePair(step.Args)
		if err != nil {
			return err
		}
		if got := match.Score().Games; got != want {
			return r.assertions.Assertf("games = %v, want %v", got, want)
		}
	case "expect_sets":
		want, err := sidePair(step.Args)
		if err != nil {
			return err
		}
		if got := match.Score().SetsWon; got != want {
			return r.assertions.Assertf("sets won = %v, want %v", got, want)
		}
	case "expect_status":
		want := strings.ToUpper(stringArg(step.Args, "status"))
		if got := string(match.Status()); got != want {
			return r.assertions.Assertf("status = %s, want %s", got, want)
		}
	case "expect_winner":
		want, err := intArg(step.Args, "side", 0)
		if err != nil {
			return err
		}
		if got := match.WinningSide(); got != want {
			return r.assertions.Assertf("winning side = %d, want %d", got, want)
		}
	}
	return nil
}

func pointInput(args map[string]any) (engine.PointInput, error) {
	winner, err := intArg(args, "winner", 0)
	if err != nil {
		return engine.PointInput{}, err
	}
	in := engine.PointInput{
		Winner: winner,
		Result: stringArg(args, "result"),
		Stroke: stringArg(args, "stroke"),
	}
	if _, ok := args["server"]; ok {
		server, err := intArg(args, "server", 0)
		if err != nil {
			return engine.PointInput{}, err
		}
		in.Server = &server
	}
	return in, nil
}

func setInput(args map[string]any) (engine.SetInput, error) {
	var in engine.SetInput
	var err error
	if in.Side1Score, err = intArg(args, "side1", 0); err != nil {
		return in, err
	}
	if in.Side2Score, err = intArg(args, "side2", 0); err != nil {
		return in, err
	}
	if in.WinningSide, err = intArg(args, "winner", 0); err != nil {
		return in, err
	}
	if in.Side1TiebreakScore, err = optionalInt(args, "tiebreak1"); err != nil {
		return in, err
	}
	if in.Side2TiebreakScore, err = optionalInt(args, "tiebreak2"); err != nil {
		return in, err
	}
	return in, nil
}

func sidePair(args map[string]any) ([2]int, error) {
	side1, err := intArg(args, "side1", 0)
	if err != nil {
		return [2]int{}, err
	}
	side2, err := intArg(args, "side2", 0)
	if err != nil {
		return [2]int{}, err
	}
	return [2]int{side1, side2}, nil
}

func intArg(args map[string]any, key string, fallback int) (int, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return fallback, nil
	}
	number, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer, got %v", key, value)
	}
	return number, nil
}

func optionalInt(args map[string]any, key string) (*int, error) {
	if _, ok := args[key]; !ok {
		return nil, nil
	}
	number, err := intArg(args, key, 0)
	if err != nil {
		return nil, err
	}
	return &number, nil
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return strings.TrimSpace(value)
}

func intList(args map[string]any, key string) ([]int, error) {
	values, _ := args[key].([]any)
	out := make([]int, 0, len(values))
	for i, value := range values {
		number, ok := value.(int)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be an integer, got %v", key, i+1, value)
		}
		out = append(out, number)
	}
	return out, nil
}

func stringList(args map[string]any, key string) ([]string, error) {
	values, _ := args[key].([]any)
	out := make([]string, 0, len(values))
	for i, value := range values {
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, got %v", key, i+1, value)
		}
		out = append(out, text)
	}
	return out, nil
}
