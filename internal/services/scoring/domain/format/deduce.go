package format

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	defaultGameTarget     = 6
	defaultTiebreakTarget = 7
)

// matchTiebreakTargets are the usual targets for a tiebreak played in place of
// a deciding set, smallest first.
var matchTiebreakTargets = []int{7, 10}

var scoreLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[-()\[\]]`},
	{Name: "Whitespace", Pattern: `[\s,]+`},
})

var scoreParser = participle.MustBuild[scoreLineAST](
	participle.Lexer(scoreLexer),
	participle.Elide("Whitespace"),
)

type scoreLineAST struct {
	Sets []*setScoreAST `@@+`
}

type setScoreAST struct {
	Bracketed *pairAST `  "[" @@ "]"`
	Plain     *pairAST `| @@`
}

type pairAST struct {
	Side1   int       `@Int`
	Side1TB *pointAST `( "(" @@ ")" )?`
	Side2   int       `"-" @Int`
	Side2TB *pointAST `( "(" @@ ")" )?`
}

type pointAST struct {
	Value int `@Int`
}

// ObservedSet is one set read from a score line.
type ObservedSet struct {
	Side1, Side2 int
	// Tiebreak holds the parenthesized tiebreak points, when present.
	Tiebreak *int
	// Bracketed marks a set played as a single tiebreak, e.g. "[10-8]".
	Bracketed bool
}

// Winner returns 1 or 2 for the side that took the set, or 0 when tied.
func (s ObservedSet) Winner() int {
	switch {
	case s.Side1 > s.Side2:
		return 1
	case s.Side2 > s.Side1:
		return 2
	default:
		return 0
	}
}

// ParseScoreLine reads a score line such as "6-4 7-6(5) [10-8]".
func ParseScoreLine(line string) ([]ObservedSet, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, invalidFormat(line, "score line is required", nil)
	}
	ast, err := scoreParser.ParseString("", trimmed)
	if err != nil {
		return nil, invalidFormat(line, "score line does not match grammar", err)
	}
	sets := make([]ObservedSet, 0, len(ast.Sets))
	for _, s := range ast.Sets {
		pair, bracketed := s.Plain, false
		if s.Bracketed != nil {
			pair, bracketed = s.Bracketed, true
		}
		observed := ObservedSet{Side1: pair.Side1, Side2: pair.Side2, Bracketed: bracketed}
		if pair.Side1TB != nil {
			observed.Tiebreak = &pair.Side1TB.Value
		} else if pair.Side2TB != nil {
			observed.Tiebreak = &pair.Side2TB.Value
		}
		sets = append(sets, observed)
	}
	return sets, nil
}

// Deduce infers a descriptor from an observed score line. Best-of comes from
// the sets won by the leading side and the number of sets present; the games
// target from the set scores; a bracketed last set becomes a match tiebreak
// final set.
func Deduce(line string) (Descriptor, error) {
	sets, err := ParseScoreLine(line)
	if err != nil {
		return Descriptor{}, err
	}

	var won [3]int
	for _, s := range sets {
		won[s.Winner()]++
	}
	maxWon := max(won[1], won[2], 1)
	bestOf := 2*maxWon - 1
	for bestOf < len(sets) {
		bestOf += 2
	}

	gameTarget := 0
	for _, s := range sets {
		if s.Bracketed {
			continue
		}
		hi, lo := max(s.Side1, s.Side2), min(s.Side1, s.Side2)
		candidate := 0
		switch {
		case s.Tiebreak != nil || (hi-lo == 1 && hi > 1):
			candidate = hi - 1
		case hi <= defaultGameTarget && hi > 0:
			candidate = hi
		}
		if candidate > 0 && (gameTarget == 0 || candidate < gameTarget) {
			gameTarget = candidate
		}
	}
	if gameTarget == 0 {
		gameTarget = defaultGameTarget
	}

	// A parenthesized score is the loser's tiebreak points, which fit every
	// target once the tiebreak goes past it, so the target stays at 7.
	desc := Descriptor{
		BestOf: bestOf,
		Set: SetRule{
			Kind:       SetStandard,
			GameTarget: gameTarget,
			Tiebreak:   &TiebreakRule{Target: defaultTiebreakTarget, At: gameTarget},
			Game:       GameRule{Kind: GameStandard},
		},
	}

	last := sets[len(sets)-1]
	if last.Bracketed {
		target := matchTiebreakTarget(last)
		desc.Final = &SetRule{
			Kind:       SetTiebreakOnly,
			GameTarget: target,
			Tiebreak:   &TiebreakRule{Target: target},
			Game:       GameRule{Kind: GameStandard},
		}
		if len(sets) == 1 {
			desc.Set = *desc.Final
			desc.Final = nil
		}
	}

	if err := desc.Validate(); err != nil {
		return Descriptor{}, invalidFormat(line, "deduced format is invalid", err)
	}
	return desc, nil
}

func matchTiebreakTarget(s ObservedSet) int {
	hi, lo := max(s.Side1, s.Side2), min(s.Side1, s.Side2)
	for _, target := range matchTiebreakTargets {
		if hi == target && lo <= target-2 {
			return target
		}
	}
	for i := len(matchTiebreakTargets) - 1; i >= 0; i-- {
		target := matchTiebreakTargets[i]
		if hi > target && hi-lo == 2 && lo >= target-1 {
			return target
		}
	}
	return max(hi, 1)
}
