package format

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	apperrors "github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors"
)

var codeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Section", Pattern: `-[SGF]:`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Z]+`},
	{Name: "Punct", Pattern: `[/@]`},
})

var codeParser = participle.MustBuild[codeAST](
	participle.Lexer(codeLexer),
)

type codeAST struct {
	BestOf int       `"SET" @Int`
	Flags  string    `@("X" | "XA")?`
	Set    *setAST   `"-S:" @@`
	Games  *gamesAST `( "-G:" @@ )?`
	Final  *setAST   `( "-F:" @@ )?`
}

type gamesAST struct {
	Streak int `@Int "C"`
}

type setAST struct {
	Timed        *timedAST    `  @@`
	TiebreakOnly *tiebreakAST `| "TB" @@`
	Standard     *standardAST `| @@`
}

type timedAST struct {
	Minutes int  `"T" @Int`
	Points  bool `@"P"?`
}

type tiebreakAST struct {
	Target int  `@Int`
	At     int  `( "@" @Int )?`
	NoAd   bool `@"NOAD"?`
}

type standardAST struct {
	Games    int          `@Int`
	NoAd     bool         `@"NOAD"?`
	Tiebreak *tiebreakAST `( "/" "TB" @@ )?`
}

// Parse converts a format code into a validated descriptor. Every failure is
// an INVALID_FORMAT domain error.
func Parse(code string) (Descriptor, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return Descriptor{}, invalidFormat(code, "format code is required", nil)
	}
	ast, err := codeParser.ParseString("", normalized)
	if err != nil {
		return Descriptor{}, invalidFormat(code, "format code does not match grammar", err)
	}

	desc := Descriptor{
		BestOf:    ast.BestOf,
		Exactly:   strings.HasPrefix(ast.Flags, "X"),
		Aggregate: ast.Flags == "XA",
	}
	if desc.Set, err = ast.Set.rule(); err != nil {
		return Descriptor{}, invalidFormat(code, "invalid set rule", err)
	}
	if ast.Games != nil {
		if !desc.Set.CountsGames() {
			return Descriptor{}, invalidFormat(code, "consecutive games need a games-based set", nil)
		}
		if desc.Set.Game.Kind == GameNoAd {
			return Descriptor{}, invalidFormat(code, "consecutive games cannot be combined with NOAD", nil)
		}
		desc.Set.Game = GameRule{Kind: GameConsecutive, Streak: ast.Games.Streak}
	}
	if ast.Final != nil {
		final, err := ast.Final.rule()
		if err != nil {
			return Descriptor{}, invalidFormat(code, "invalid final set rule", err)
		}
		if desc.Set.Game.Kind == GameConsecutive && final.CountsGames() {
			if final.Game.Kind == GameNoAd {
				return Descriptor{}, invalidFormat(code, "consecutive games cannot be combined with NOAD", nil)
			}
			final.Game = desc.Set.Game
		}
		desc.Final = &final
	}
	if err := desc.Validate(); err != nil {
		return Descriptor{}, invalidFormat(code, "invalid format", err)
	}
	return desc, nil
}

// Validate checks the numeric constraints of a descriptor. It is applied to
// parsed codes and to descriptors supplied directly by callers.
func (d Descriptor) Validate() error {
	if d.BestOf < 1 {
		return fmt.Errorf("best of must be at least 1, got %d", d.BestOf)
	}
	if d.Aggregate && !d.Exactly {
		return fmt.Errorf("aggregate scoring requires every set to be played")
	}
	if err := d.Set.validate(); err != nil {
		return err
	}
	if d.Final != nil {
		if err := d.Final.validate(); err != nil {
			return fmt.Errorf("final set: %w", err)
		}
	}
	return nil
}

func (r SetRule) validate() error {
	switch r.Game.Kind {
	case GameStandard, GameNoAd:
	case GameConsecutive:
		if r.Game.Streak < 1 {
			return fmt.Errorf("consecutive streak must be at least 1, got %d", r.Game.Streak)
		}
	default:
		return fmt.Errorf("unknown game kind %q", r.Game.Kind)
	}

	switch r.Kind {
	case SetStandard:
		if r.GameTarget < 1 {
			return fmt.Errorf("games to win must be at least 1, got %d", r.GameTarget)
		}
		if r.Tiebreak != nil {
			if r.Tiebreak.Target < 1 {
				return fmt.Errorf("tiebreak target must be at least 1, got %d", r.Tiebreak.Target)
			}
			if r.Tiebreak.At < 0 || r.Tiebreak.At > r.GameTarget {
				return fmt.Errorf("tiebreak must start between 1 and %d games, got %d", r.GameTarget, r.Tiebreak.At)
			}
		}
	case SetTiebreakOnly:
		if r.GameTarget < 1 {
			return fmt.Errorf("tiebreak target must be at least 1, got %d", r.GameTarget)
		}
	case SetTimed, SetAggregate:
		if r.Minutes < 1 {
			return fmt.Errorf("timed segment must last at least 1 minute, got %d", r.Minutes)
		}
	default:
		return fmt.Errorf("unknown set kind %q", r.Kind)
	}
	return nil
}

func (s *setAST) rule() (SetRule, error) {
	standardGame := GameRule{Kind: GameStandard}
	switch {
	case s.Timed != nil:
		kind := SetTimed
		if s.Timed.Points {
			kind = SetAggregate
		}
		return SetRule{Kind: kind, Minutes: s.Timed.Minutes, Game: standardGame}, nil
	case s.TiebreakOnly != nil:
		if s.TiebreakOnly.At != 0 {
			return SetRule{}, fmt.Errorf("tiebreak-only set cannot declare a trigger")
		}
		return SetRule{
			Kind:       SetTiebreakOnly,
			GameTarget: s.TiebreakOnly.Target,
			Tiebreak:   &TiebreakRule{Target: s.TiebreakOnly.Target, NoAd: s.TiebreakOnly.NoAd},
			Game:       standardGame,
		}, nil
	case s.Standard != nil:
		rule := SetRule{Kind: SetStandard, GameTarget: s.Standard.Games, Game: standardGame}
		if s.Standard.NoAd {
			rule.Game = GameRule{Kind: GameNoAd}
		}
		if tb := s.Standard.Tiebreak; tb != nil {
			at := tb.At
			if at == 0 {
				at = rule.GameTarget
			}
			rule.Tiebreak = &TiebreakRule{Target: tb.Target, At: at, NoAd: tb.NoAd}
		}
		return rule, nil
	default:
		return SetRule{}, fmt.Errorf("empty set rule")
	}
}

func invalidFormat(code, message string, cause error) error {
	err := apperrors.WithMetadata(apperrors.CodeInvalidFormat, message, map[string]string{"Format": code})
	err.Cause = cause
	return err
}
